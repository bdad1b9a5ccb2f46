package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpenseUnmarshalDefaults(t *testing.T) {
	var list []Expense
	blob := `[
		{"Date":"2024-01-01","Time":"12:00:00","Amount":3.5,"Category":"Food","Description":"Lunch"},
		{"Date":"2024-01-02","Time":"08:00:00","Amount":"7.25"},
		{"Amount":"garbage","Category":""}
	]`
	if err := json.Unmarshal([]byte(blob), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	if list[0].Amount != 3.5 || list[0].Description != "Lunch" {
		t.Fatalf("unexpected first record: %+v", list[0])
	}
	if list[1].Amount != 7.25 || list[1].Category != FallbackCategory || list[1].Description != "" {
		t.Fatalf("unexpected second record: %+v", list[1])
	}
	if list[2].Amount != 0 || list[2].Category != FallbackCategory {
		t.Fatalf("unexpected third record: %+v", list[2])
	}
}

func TestExpenseMarshalFieldNames(t *testing.T) {
	b, err := json.Marshal(Expense{Date: "2024-01-01", Time: "12:00:00", Amount: 3.5, Category: "Food"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Date":"2024-01-01","Time":"12:00:00","Amount":3.5,"Category":"Food","Description":""}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestDateAndTimeOf(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 3, 0, time.Local)
	if DateOf(ts) != "2024-03-07" || TimeOf(ts) != "09:05:03" {
		t.Fatalf("unexpected formatting: %s %s", DateOf(ts), TimeOf(ts))
	}
}

func TestLoadCategories(t *testing.T) {
	dir := t.TempDir()
	if cats := LoadCategories(dir); len(cats) != len(DefaultCategories) {
		t.Fatalf("expected defaults when file missing, got %v", cats)
	}

	content := "# header\nFood\nRent\nFood\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	cats := LoadCategories(dir)
	if len(cats) != 2 || cats[0] != "Food" || cats[1] != "Rent" {
		t.Fatalf("unexpected cats: %v", cats)
	}
}

func TestUserErrorUnwrap(t *testing.T) {
	err := NewUserError("nope", ErrInvalidAmount)
	if UserMessage(err, "x") != "nope" {
		t.Fatalf("unexpected message")
	}
	if UserMessage(ErrInvalidAmount, "fallback") != "fallback" {
		t.Fatalf("expected fallback for plain errors")
	}
}

func TestCategoryOrTrims(t *testing.T) {
	cases := map[string]string{
		"":         FallbackCategory,
		"   ":      FallbackCategory,
		" Food ":   "Food",
		"Bills":    "Bills",
		"\tRent\n": "Rent",
	}
	for in, want := range cases {
		if got := CategoryOr(in); got != want {
			t.Fatalf("CategoryOr(%q) = %q, want %q", in, got, want)
		}
	}
	if e := (Expense{Category: "  Food "}).Normalize(); e.Category != "Food" {
		t.Fatalf("Normalize kept untrimmed category %q", e.Category)
	}
}
