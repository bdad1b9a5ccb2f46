// Package records implements the persisted Record List: one JSON array of
// expenses stored under a single key.
//
// Every mutation loads the whole list, changes it and writes it back. There is
// no per-record identity beyond position, so callers must index into a list
// they loaded after the last mutation.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"myexpenses/internal/core"
	"myexpenses/internal/log"
	"myexpenses/internal/storage"
)

// DefaultKey is the storage key of the Record List.
const DefaultKey = "expenses"

// Store is the Record List persisted under one key of a storage.KV.
type Store struct {
	kv     storage.KV
	key    string
	logger *log.Logger

	// serializes load-modify-save cycles within the process
	mu sync.Mutex
}

// NewStore creates a Store over kv. An empty key selects DefaultKey.
func NewStore(kv storage.KV, key string, logger *log.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		kv:     kv,
		key:    key,
		logger: logger.WithComponent(log.ComponentRecords),
	}
}

// Key returns the storage key the list is persisted under.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted list. An absent key, unreadable storage or a
// blob that is not a JSON array all yield an empty list.
func (s *Store) Load(ctx context.Context) []core.Expense {
	list, err := s.load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read expenses from storage",
			log.FieldError, err, log.FieldOperation, log.OpRead, log.FieldKey, s.key)
		return []core.Expense{}
	}
	return list
}

// Read is Load for callers that write the list elsewhere: a storage failure
// is returned instead of degrading to an empty list.
func (s *Store) Read(ctx context.Context) ([]core.Expense, error) {
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]core.Expense, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read expenses: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []core.Expense{}, nil
	}
	return s.decode(ctx, raw), nil
}

// decode keeps every element that decodes as a record. Elements that are not
// objects are dropped one by one so a single bad entry cannot empty the list.
func (s *Store) decode(ctx context.Context, raw string) []core.Expense {
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse expenses from storage",
			log.FieldError, err, log.FieldOperation, log.OpParse, log.FieldKey, s.key)
		return []core.Expense{}
	}
	if len(probe) == 0 || probe[0] != '[' {
		s.logger.WarnContext(ctx, "Stored expenses are not a list, ignoring",
			log.FieldOperation, log.OpParse, log.FieldKey, s.key)
		return []core.Expense{}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(probe, &elems); err != nil {
		s.logger.ErrorContext(ctx, "Failed to decode stored expenses",
			log.FieldError, err, log.FieldOperation, log.OpParse, log.FieldKey, s.key)
		return []core.Expense{}
	}

	list := make([]core.Expense, 0, len(elems))
	for i, elem := range elems {
		var e core.Expense
		if err := json.Unmarshal(elem, &e); err != nil {
			s.logger.WarnContext(ctx, "Skipping stored expense that is not a record",
				log.FieldError, err, log.FieldOperation, log.OpParse, log.FieldKey, s.key, log.FieldIndex, i)
			continue
		}
		list = append(list, e)
	}
	return list
}

// Save overwrites the persisted list.
func (s *Store) Save(ctx context.Context, list []core.Expense) error {
	if list == nil {
		list = []core.Expense{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("write expenses: %w", err)
	}
	return nil
}

// Append adds one record at the end of the list.
func (s *Store) Append(ctx context.Context, e core.Expense) error {
	return s.AppendAll(ctx, []core.Expense{e})
}

// AppendAll adds records at the end of the list in one write.
func (s *Store) AppendAll(ctx context.Context, items []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, e := range items {
		list = append(list, e.Normalize())
	}
	return s.Save(ctx, list)
}

// RemoveAt deletes the record at index. An index outside [0, len) is a no-op
// and reports removed=false without error.
func (s *Store) RemoveAt(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(list) {
		return false, nil
	}
	list = append(list[:index], list[index+1:]...)
	if err := s.Save(ctx, list); err != nil {
		return false, err
	}
	return true, nil
}

// Clear replaces the list with an empty one.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Save(ctx, []core.Expense{})
}
