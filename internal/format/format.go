// Package format turns raw metric values into display strings.
//
// Every function is total: absent (nil), NaN and infinite inputs resolve to a
// fixed fallback so callers never render a malformed value.
package format

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	fallbackScore    = "0"
	fallbackPercent  = "0%"
	fallbackCurrency = "$0"
	fallbackCount    = "0"
)

// Score rounds v to a whole number.
func Score(v *float64) string {
	if !valid(v) {
		return fallbackScore
	}
	return fixed(*v, 0)
}

// Percentage renders v with one decimal place followed by a percent sign.
func Percentage(v *float64) string {
	if !valid(v) {
		return fallbackPercent
	}
	return fixed(*v, 1) + "%"
}

// Percentage2 renders v with two decimal places followed by a percent sign.
func Percentage2(v *float64) string {
	if !valid(v) {
		return fallbackPercent
	}
	return fixed(*v, 2) + "%"
}

// Currency renders v as a grouped whole dollar amount, e.g. $1,234,568.
func Currency(v *float64) string {
	if !valid(v) {
		return fallbackCurrency
	}
	return "$" + grouped(*v)
}

// Count renders v as a grouped whole number.
func Count(v *float64) string {
	if !valid(v) {
		return fallbackCount
	}
	return grouped(*v)
}

// Text returns v, or fallback when v is blank.
func Text(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// Float returns a pointer to v. Handy for literals in payloads and tests.
func Float(v float64) *float64 {
	return &v
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// fixed rounds half away from zero before formatting; strconv alone would
// round half to even.
func fixed(v float64, decimals int) string {
	scale := math.Pow10(decimals)
	rounded := math.Round(v*scale) / scale
	if rounded == 0 {
		rounded = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(rounded, 'f', decimals, 64)
}

// int64 covers every realistic lead count or revenue figure; larger
// magnitudes go through the decimal formatter instead.
const maxExactInt = 1 << 62

func grouped(v float64) string {
	rounded := math.Round(v)
	if rounded == 0 {
		rounded = 0
	}
	p := message.NewPrinter(language.English)
	if math.Abs(rounded) < maxExactInt {
		return p.Sprintf("%d", int64(rounded))
	}
	return p.Sprint(number.Decimal(rounded, number.MaxFractionDigits(0)))
}
