// Package core provides the expense record model, amount handling and the
// category aggregator.
//
// This file contains functions for turning user-entered and imported amount
// text into finite float values.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// InvalidAmountMessage is shown when a form amount is rejected.
const InvalidAmountMessage = "Please enter a valid amount."

// FiniteOrZero returns v, or 0 when v is NaN or infinite.
func FiniteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CoerceAmount parses imported amount text by its longest leading number, so
// trailing units or currency symbols are ignored. Missing, unparsable and
// non-finite values become 0; negative values are kept.
//
// Examples:
//
//	CoerceAmount("3.50")   -> 3.5
//	CoerceAmount("12 EUR") -> 12
//	CoerceAmount("abc")    -> 0
//	CoerceAmount("Inf")    -> 0
func CoerceAmount(s string) float64 {
	prefix := numericPrefix(strings.TrimSpace(s))
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return FiniteOrZero(v)
}

// numericPrefix returns the longest prefix of s of the form
// [sign] digits [. digits] [e [sign] digits] with at least one mantissa digit.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}
	return s[:end]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseFormAmount validates an amount entered in the add form and rounds it
// to one fractional digit (half away from zero).
//
// It rejects empty, unparsable, non-finite and negative input with
// ErrInvalidAmount wrapped in a UserError.
func ParseFormAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, NewUserError(InvalidAmountMessage, ErrInvalidAmount)
	}
	rounded, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return rounded, nil
}

// FormatAmount renders an amount with a fixed number of fractional digits for
// display.
func FormatAmount(v float64, places int32) string {
	return decimal.NewFromFloat(FiniteOrZero(v)).StringFixed(places)
}
