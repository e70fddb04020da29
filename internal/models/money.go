package models

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not finite positive numbers.
var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

const maxAmountLen = 32

// MaxAmountCents caps a single expense at ten billion major units. It keeps the
// sum of millions of expenses inside int64, both in Summarize and in SQL SUM.
const MaxAmountCents int64 = 1_000_000_000_000

// ValidCents reports whether cents is an acceptable expense amount.
func ValidCents(cents int64) bool {
	return cents > 0 && cents <= MaxAmountCents
}

// ParseAmount converts a decimal amount in major currency units into cents.
//
// Both "12.34" and "12,34" are accepted. The value is multiplied by 100 and
// rounded half away from zero, so "10.005" becomes 1001. Anything that does
// not end up as a positive number of cents up to MaxAmountCents is rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || len(s) > maxAmountLen || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(decimal.NewFromInt(MaxAmountCents)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a major-unit string with two decimals, e.g. 1250 -> "12.50".
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
