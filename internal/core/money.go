// Package core implements the ledger reconciliation and time-series
// projection engine behind the budgeting dashboard.
//
// This file contains money parsing and formatting. All arithmetic on
// monetary values happens in signed integer minor units (para, 1/100 of
// the display unit); division by 100 appears only when rendering.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// maxSafeUnits is the largest whole-unit value whose minor representation
// (value*100 + 99) still fits in int64.
const maxSafeUnits = ((1<<63 - 1) - 99) / 100

// ParseDecimalToMinor converts a decimal string to minor units with
// half-up rounding on the third fraction digit. It accepts both dot
// (12.34) and comma (12,34) separators and rejects negative or malformed
// input with ErrInvalidAmount. Zero is a valid result; callers that need
// a strictly positive amount must check that themselves.
//
// Examples:
//
//	ParseDecimalToMinor("120.50") -> 12050, nil
//	ParseDecimalToMinor("12.344") -> 1234, nil (rounds down)
//	ParseDecimalToMinor("12.345") -> 1235, nil (rounds up)
func ParseDecimalToMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only non-negative values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		if fracPart == "" {
			return 0, ErrInvalidAmount
		}
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow: iv*100 plus up to 99 fraction minor units must
	// stay within int64
	if iv > maxSafeUnits {
		return 0, ErrInvalidAmount
	}
	// First two fraction digits, then half-up rounding on the third
	var fracMinor int64
	if len(fracPart) > 0 {
		fracMinor = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracMinor += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracMinor++
			}
		}
	}
	return iv*100 + fracMinor, nil
}

// FormatMinor renders minor units for display: two fraction digits and an
// apostrophe thousands separator, e.g. FormatMinor(12000000) == "120'000.00".
// Negative amounts carry a leading minus before the separated magnitude.
func FormatMinor(minor int64) string {
	neg := minor < 0
	if neg {
		minor = -minor
	}
	units := strconv.FormatInt(minor/100, 10)
	frac := minor % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(units) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(units[:lead])
	for i := lead; i < len(units); i += 3 {
		b.WriteByte('\'')
		b.WriteString(units[i : i+3])
	}
	b.WriteByte('.')
	b.WriteByte(byte('0' + frac/10))
	b.WriteByte(byte('0' + frac%10))
	return b.String()
}
