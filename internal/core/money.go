// Package core provides amount parsing and formatting utilities.
//
// Ledger amounts are whole rupees. Forms may still send "2,500" or "2500.00",
// so parsing tolerates grouping separators and a zero fractional part.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts user input to a whole number of rupees.
//
// Grouping commas and spaces are ignored, an optional leading "₹" or "Rs" is
// stripped, and a fractional part is accepted only when it is all zeros.
// Negative values are rejected; zero is allowed (a partial payment of nothing).
//
// Examples:
//
//	ParseAmount("2500")     -> 2500, nil
//	ParseAmount("₹6,000")   -> 6000, nil
//	ParseAmount("1,50,000") -> 150000, nil
//	ParseAmount("2500.00")  -> 2500, nil
//	ParseAmount("2500.50")  -> 0, ErrInvalidArgument
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rs."), "Rs")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount: %w", ErrInvalidArgument)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("amount %q: %w", s, ErrInvalidArgument)
	}
	s = strings.NewReplacer(",", "", " ", "").Replace(s)

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		return 0, fmt.Errorf("amount %q: %w", s, ErrInvalidArgument)
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("amount %q: %w", s, ErrInvalidArgument)
		}
	}
	for _, r := range fracPart {
		if r != '0' {
			return 0, fmt.Errorf("amount %q has paise: %w", s, ErrInvalidArgument)
		}
	}

	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, ErrInvalidArgument)
	}
	return v, nil
}

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹39,00,000.
func FormatRupees(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("₹")
	if len(digits) <= 3 {
		b.WriteString(digits)
		return b.String()
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	// Leading group may be one or two digits, the rest are pairs.
	first := len(head) % 2
	if first == 0 {
		first = 2
	}
	b.WriteString(head[:first])
	for i := first; i < len(head); i += 2 {
		b.WriteByte(',')
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
