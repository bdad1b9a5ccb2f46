// Package worker keeps the external spreadsheet mirror in step with the
// Record List.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"myexpenses/internal/amqp"
	"myexpenses/internal/core"
	"myexpenses/internal/csvcodec"
	"myexpenses/internal/log"
	"myexpenses/internal/sheets"
)

// ListSource yields the current Record List. records.Store satisfies it.
// A read failure must be reported, never replaced by an empty list, or the
// mirror would be wiped.
type ListSource interface {
	Read(ctx context.Context) ([]core.Expense, error)
}

// MirrorWorker rewrites the mirror from a fresh load whenever the list
// changes. Every sync is a full replace, so duplicate or reordered events are
// harmless and the periodic resync repairs anything a lost event missed.
type MirrorWorker struct {
	source ListSource
	mirror sheets.RowMirror
	logger *log.Logger

	// one sync at a time
	mu         sync.Mutex
	lastSynced time.Time
	lastCount  int
}

func NewMirrorWorker(source ListSource, mirror sheets.RowMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleListChanged processes one event from AMQP
func (w *MirrorWorker) HandleListChanged(ctx context.Context, msg *amqp.ListChanged) error {
	w.logger.InfoContext(ctx, "Processing list changed event",
		log.FieldEvent, msg.Op, log.FieldCount, msg.Count)
	return w.Sync(ctx, msg.Op)
}

// Sync replaces the mirror contents with the current list
func (w *MirrorWorker) Sync(ctx context.Context, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	list, err := w.source.Read(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	if err := w.mirror.ReplaceRows(ctx, csvcodec.Header, csvcodec.Rows(list)); err != nil {
		return fmt.Errorf("replace mirror rows: %w", err)
	}

	w.lastSynced = time.Now()
	w.lastCount = len(list)
	w.logger.InfoContext(ctx, "Mirror synced",
		log.FieldOperation, log.OpSync, log.FieldEvent, reason, log.FieldCount, len(list))
	return nil
}

// RunPeriodic resyncs every interval until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Sync(ctx, amqp.OpResync); err != nil {
				w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err)
			}
		}
	}
}

// Status reports when the mirror was last written and how many rows it got.
func (w *MirrorWorker) Status() (time.Time, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSynced, w.lastCount
}
