package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the persisted and exported calendar date format.
	DateLayout = "2006-01-02"
	// TimeLayout is the persisted and exported clock time format.
	TimeLayout = "15:04:05"

	// FallbackCategory replaces a missing or empty category label.
	FallbackCategory = "Other"
)

type (
	// Expense is one recorded spending entry. Field names are part of the
	// persisted blob format and must not change.
	Expense struct {
		Date        string  `json:"Date"`
		Time        string  `json:"Time"`
		Amount      float64 `json:"Amount"`
		Category    string  `json:"Category"`
		Description string  `json:"Description"`
	}

	// ExpenseInput is raw, untrusted form input for a new expense.
	ExpenseInput struct {
		Amount      string
		Category    string
		Description string
	}

	// UserError pairs an internal cause with a message safe to show the user.
	UserError struct {
		Err         error
		UserMessage string
	}
)

var (
	// ErrInvalidAmount reports form input that is not a non-negative finite number.
	ErrInvalidAmount = errors.New("invalid amount")
)

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError wraps err with a user-facing message.
func NewUserError(userMessage string, err error) error {
	return &UserError{Err: err, UserMessage: userMessage}
}

// UserMessage returns the user-facing message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.UserMessage
	}
	return fallback
}

// DateOf formats t as a persisted calendar date.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// TimeOf formats t as a persisted clock time.
func TimeOf(t time.Time) string {
	return t.Format(TimeLayout)
}

// CategoryOr returns the trimmed label, or FallbackCategory when it is empty.
func CategoryOr(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return FallbackCategory
	}
	return label
}

// Normalize enforces the record invariants: finite amount, non-empty category.
func (e Expense) Normalize() Expense {
	e.Amount = FiniteOrZero(e.Amount)
	e.Category = CategoryOr(e.Category)
	return e
}

// UnmarshalJSON tolerates missing fields and amounts stored as strings.
func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date        *string         `json:"Date"`
		Time        *string         `json:"Time"`
		Amount      json.RawMessage `json:"Amount"`
		Category    *string         `json:"Category"`
		Description *string         `json:"Description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Expense{}
	if raw.Date != nil {
		e.Date = *raw.Date
	}
	if raw.Time != nil {
		e.Time = *raw.Time
	}
	if raw.Category != nil {
		e.Category = *raw.Category
	}
	if raw.Description != nil {
		e.Description = *raw.Description
	}
	e.Amount = amountFromJSON(raw.Amount)
	*e = e.Normalize()
	return nil
}

func amountFromJSON(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return FiniteOrZero(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return CoerceAmount(s)
	}
	return 0
}
