// Package core provides the payments domain: records, amount coercion,
// header mapping, row normalization and aggregate statistics.
//
// This file contains the amount parsing and INR formatting helpers.
package core

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// leadingNumber matches the numeric prefix a spreadsheet cell starts with,
// so "5000/-" and "5000INR" read as 5000.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount converts a currency-formatted cell into a decimal.
//
// Currency symbols (any Unicode Sc rune such as ₹, $ or €), commas and
// whitespace are stripped, then the longest leading number is parsed and
// any trailing text ignored. A cell with no leading number, or one too
// large for a float64, yields zero; the boolean reports whether parsing
// succeeded.
//
// Examples:
//
//	ParseAmount("₹12,345.50") -> 12345.5, true
//	ParseAmount("₹5,000/-")   -> 5000, true
//	ParseAmount("abc")        -> 0, false
//	ParseAmount("1e400")      -> 0, false
func ParseAmount(s string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	prefix := strings.TrimSuffix(leadingNumber.FindString(cleaned), ".")
	if prefix == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero, false
	}
	if f := d.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	return d, true
}

// AmountValue is ParseAmount reduced to the float64 carried by Record.
func AmountValue(s string) float64 {
	d, _ := ParseAmount(s)
	return d.InexactFloat64()
}

// FormatINR renders an amount as rupees with Indian digit grouping,
// e.g. 1234567.5 -> "₹12,34,567.5".
func FormatINR(amount float64) string {
	if amount < 0 {
		return "-₹" + inrPrinter.Sprint(number.Decimal(-amount, number.MaxFractionDigits(2)))
	}
	return "₹" + inrPrinter.Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
}
