package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"myexpenses/internal/amqp"
	"myexpenses/internal/core"
	"myexpenses/internal/csvcodec"
	"myexpenses/internal/log"
	"myexpenses/internal/records"
)

// AddedMessage is shown after a successful add.
const AddedMessage = "Expense added successfully!"

// ChangePublisher announces that the Record List was rewritten.
type ChangePublisher interface {
	PublishListChanged(ctx context.Context, op string, count int) error
}

// ExpenseService orchestrates the Record List operations and change
// notification. Persisting always happens first; publishing is best effort.
type ExpenseService struct {
	store     *records.Store
	publisher ChangePublisher
	logger    *log.Logger
	now       func() time.Time
	strictCSV bool
}

type Option func(*ExpenseService)

// WithPublisher sets the publisher notified after every mutation.
func WithPublisher(p ChangePublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithClock overrides the clock used to stamp new and imported records.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithStrictHeader controls whether imports with an incomplete header are rejected.
func WithStrictHeader(strict bool) Option {
	return func(s *ExpenseService) { s.strictCSV = strict }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func NewExpenseService(store *records.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:     store,
		now:       time.Now,
		strictCSV: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentRecords)
	return s
}

// List returns a freshly loaded Record List.
func (s *ExpenseService) List(ctx context.Context) []core.Expense {
	return s.store.Load(ctx)
}

// Summary aggregates the current list by category.
func (s *ExpenseService) Summary(ctx context.Context) core.CategoryTotals {
	return core.Summarize(s.store.Load(ctx))
}

// AddExpense validates form input, stamps the current date and time and
// appends the record. Invalid amounts leave the list untouched.
func (s *ExpenseService) AddExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	amount, err := core.ParseFormAmount(in.Amount)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected expense with invalid amount",
			log.FieldOperation, log.OpValidate)
		return core.Expense{}, err
	}

	now := s.now()
	e := core.Expense{
		Date:        core.DateOf(now),
		Time:        core.TimeOf(now),
		Amount:      amount,
		Category:    core.CategoryOr(strings.TrimSpace(in.Category)),
		Description: strings.TrimSpace(in.Description),
	}

	if err := s.store.Append(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("append expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense added",
		log.FieldOperation, log.OpCreate, log.FieldAmount, e.Amount, log.FieldCategory, e.Category)

	s.publish(ctx, amqp.OpAppend, 1)
	return e, nil
}

// DeleteAt removes the record at index. Out-of-range indexes are ignored.
func (s *ExpenseService) DeleteAt(ctx context.Context, index int) (bool, error) {
	removed, err := s.store.RemoveAt(ctx, index)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", index, err)
	}
	if !removed {
		s.logger.DebugContext(ctx, "Delete index out of range, ignoring",
			log.FieldOperation, log.OpDelete, log.FieldIndex, index)
		return false, nil
	}

	s.publish(ctx, amqp.OpDelete, 1)
	return true, nil
}

// Clear replaces the list with an empty one.
func (s *ExpenseService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	s.logger.InfoContext(ctx, "Expenses cleared", log.FieldOperation, log.OpClear)

	s.publish(ctx, amqp.OpClear, 0)
	return nil
}

// ImportCSV decodes text and appends every decoded record to the existing
// list. It returns the number of records appended.
func (s *ExpenseService) ImportCSV(ctx context.Context, text string) (int, error) {
	imported, err := csvcodec.Decode(text, csvcodec.Options{Strict: s.strictCSV, Now: s.now})
	if err != nil {
		if errors.Is(err, csvcodec.ErrMalformedHeader) {
			return 0, core.NewUserError(
				"The CSV header must include Date, Time, Amount and Category columns.", err)
		}
		return 0, fmt.Errorf("decode csv: %w", err)
	}
	if len(imported) == 0 {
		return 0, nil
	}

	if err := s.store.AppendAll(ctx, imported); err != nil {
		return 0, fmt.Errorf("append imported expenses: %w", err)
	}
	s.logger.InfoContext(ctx, "Expenses imported",
		log.FieldOperation, log.OpImport, log.FieldCount, len(imported))

	s.publish(ctx, amqp.OpImport, len(imported))
	return len(imported), nil
}

// ExportCSV renders the current list and the download file name.
func (s *ExpenseService) ExportCSV(ctx context.Context) (filename, body string) {
	list := s.store.Load(ctx)
	return csvcodec.Filename(s.now()), csvcodec.Encode(list)
}

func (s *ExpenseService) publish(ctx context.Context, op string, count int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishListChanged(ctx, op, count); err != nil {
		// the list is already saved locally
		s.logger.ErrorContext(ctx, "Failed to publish list changed event",
			log.FieldError, err, log.FieldOperation, log.OpPublish, log.FieldEvent, op)
	}
}

// Close closes the publisher when it holds resources.
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
