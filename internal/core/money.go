// Package core provides the ledger domain: records, partitions, the value
// normalizer for decimal-comma amounts, normalized tables and their summaries.
//
// This file converts between spreadsheet amount cells ("1.234,56") and
// decimal amounts, and renders amounts for display ("€ 1.234,56").
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every displayed amount.
const CurrencySymbol = "€"

var plainDecimal = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// ParseAmount converts a decimal-comma, period-thousands string to a decimal.
//
// Thousands separators (".") are removed and the decimal comma becomes a dot.
// A currency symbol and blanks are ignored so displayed values parse back.
// Anything that is not a plain number afterwards is a *ParseError.
//
// Examples:
//
//	ParseAmount("1.234,56")   -> 1234.56
//	ParseAmount("-800,00")    -> -800
//	ParseAmount("€ 1.234,56") -> 1234.56
//	ParseAmount("abc")        -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	v := strings.NewReplacer(CurrencySymbol, "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if v == "" {
		return decimal.Zero, &ParseError{Value: s, Reason: "empty amount"}
	}
	v = strings.ReplaceAll(v, ".", "")
	v = strings.ReplaceAll(v, ",", ".")
	if !plainDecimal.MatchString(v) {
		return decimal.Zero, &ParseError{Value: s, Reason: "not a decimal-comma number"}
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(v, "+"))
	if err != nil {
		return decimal.Zero, &ParseError{Value: s, Reason: err.Error()}
	}
	return d, nil
}

// FormatAmount renders d with two decimals, "." thousands grouping and a
// decimal comma: -1234.5 -> "-1.234,50".
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	intPart, frac, _ := strings.Cut(strings.TrimPrefix(fixed, "-"), ".")

	var b strings.Builder
	b.Grow(len(fixed) + len(intPart)/3 + 1)
	if neg {
		b.WriteByte('-')
	}
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(intPart[i])
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatEuro renders d for display: "€ 1.234,56".
func FormatEuro(d decimal.Decimal) string {
	return CurrencySymbol + " " + FormatAmount(d)
}
