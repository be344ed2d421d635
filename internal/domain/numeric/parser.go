// Package numeric parses raw OCR number strings into signed decimals and
// detects the document-wide magnitude scale. Parsing never fails on
// ambiguity; it returns a best-effort value with a confidence score.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format describes how the separators of a raw number were interpreted.
type Format string

const (
	FormatPlain    Format = "plain"    // no separators
	FormatEuropean Format = "european" // 1.234.567,89
	FormatAmerican Format = "american" // 1,234,567.89
)

// Parsed is the result of parsing a single raw number string.
type Parsed struct {
	Value      decimal.Decimal
	Confidence float64
	Format     Format
	Negative   bool
	Raw        string
}

// currency tokens stripped before parsing; longest first so "TEUR" is
// removed whole instead of leaving a stray "T" after an "EUR" pass.
var currencyTokens = []string{"TEUR", "KEUR", "MEUR", "EUR", "USD", "GBP", "€", "$", "£"}

// ParseAmount parses a raw statement value. It handles European and
// American separator conventions, parenthesized and trailing-minus
// negatives, and embedded currency symbols. An error is returned only when
// the string contains no digits at all.
func ParseAmount(raw string) (Parsed, error) {
	p := Parsed{Raw: raw, Confidence: 1.0, Format: FormatPlain}

	s := strings.TrimSpace(raw)
	if s == "" {
		return p, fmt.Errorf("numeric: empty value")
	}

	// Negative notation: parentheses, leading or trailing minus. OCR often
	// renders the minus as a unicode dash.
	s = strings.NewReplacer("−", "-", "–", "-", "—", "-").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		p.Negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		p.Negative = true
		s = strings.TrimPrefix(s, "-")
	}
	if strings.HasSuffix(s, "-") {
		p.Negative = true
		s = strings.TrimSuffix(s, "-")
	}

	upper := strings.ToUpper(s)
	for _, tok := range currencyTokens {
		upper = strings.ReplaceAll(upper, tok, "")
	}
	// Spaces (including non-breaking and narrow no-break) act as thousands
	// separators in French statements; drop them all.
	upper = strings.NewReplacer(" ", "", " ", "", " ", "", "'", "").Replace(upper)
	s = strings.TrimSpace(upper)
	if !strings.ContainsAny(s, "0123456789") {
		return p, fmt.Errorf("numeric: no digits in %q", raw)
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots == 0 && commas == 0:
		p.Format = FormatPlain
		p.Confidence = 1.0

	case dots > 0 && commas > 0:
		// Both present: the rightmost separator is the decimal separator.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			p.Format = FormatEuropean
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			p.Format = FormatAmerican
			s = strings.ReplaceAll(s, ",", "")
		}
		p.Confidence = 0.95

	case commas > 0:
		trailing := digitsAfterLast(s, ',')
		switch {
		case commas == 1 && trailing == 2:
			// European decimal: "1234,56"
			p.Format = FormatEuropean
			s = strings.Replace(s, ",", ".", 1)
			p.Confidence = 0.9
		case commas == 1 && trailing == 3:
			// American thousands: "1,234"
			p.Format = FormatAmerican
			s = strings.ReplaceAll(s, ",", "")
			p.Confidence = 0.85
		case commas > 1:
			p.Format = FormatAmerican
			s = strings.ReplaceAll(s, ",", "")
			p.Confidence = 0.95
		default:
			// Unusual digit run after the comma; treat as decimal.
			p.Format = FormatEuropean
			s = strings.Replace(s, ",", ".", 1)
			p.Confidence = 0.6
		}

	default: // dots only
		trailing := digitsAfterLast(s, '.')
		switch {
		case dots == 1 && trailing == 2:
			// American decimal: "1234.56"
			p.Format = FormatAmerican
			p.Confidence = 0.9
		case dots == 1 && trailing == 3:
			// European thousands: "1.234"
			p.Format = FormatEuropean
			s = strings.ReplaceAll(s, ".", "")
			p.Confidence = 0.85
		case dots > 1:
			p.Format = FormatEuropean
			s = strings.ReplaceAll(s, ".", "")
			p.Confidence = 0.95
		default:
			p.Format = FormatAmerican
			p.Confidence = 0.6
		}
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return p, fmt.Errorf("numeric: cannot parse %q: %w", raw, err)
	}
	if p.Negative {
		v = v.Neg()
	}
	p.Value = v
	return p, nil
}

// ParseRate parses a percentage or interest-rate string into a decimal
// fraction: "5,25%" -> 0.0525, "150 bps" -> 0.015. A bare number is taken
// as a percent value when it is greater than 1, a fraction otherwise.
func ParseRate(raw string) (Parsed, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	divisor := decimal.Zero

	switch {
	case strings.HasSuffix(s, "%"):
		s = strings.TrimSuffix(s, "%")
		divisor = decimal.NewFromInt(100)
	case strings.HasSuffix(s, "bps"), strings.HasSuffix(s, "bp"):
		s = strings.TrimSuffix(strings.TrimSuffix(s, "bps"), "bp")
		divisor = decimal.NewFromInt(10000)
	case strings.Contains(s, "basis point"):
		s = strings.Split(s, "basis point")[0]
		divisor = decimal.NewFromInt(10000)
	case strings.Contains(s, "percent"), strings.Contains(s, "pourcent"), strings.Contains(s, "prozent"):
		for _, w := range []string{"percent", "pourcent", "prozent"} {
			s = strings.Split(s, w)[0]
		}
		divisor = decimal.NewFromInt(100)
	}

	p, err := ParseAmount(s)
	if err != nil {
		return p, err
	}
	if !divisor.IsZero() {
		p.Value = p.Value.Div(divisor)
		return p, nil
	}
	// No explicit suffix: values above 1 read as percentages.
	if p.Value.Abs().GreaterThan(decimal.NewFromInt(1)) {
		p.Value = p.Value.Div(decimal.NewFromInt(100))
		p.Confidence *= 0.8
	}
	return p, nil
}

// digitsAfterLast counts consecutive digits after the last occurrence of sep.
func digitsAfterLast(s string, sep byte) int {
	idx := strings.LastIndexByte(s, sep)
	if idx < 0 {
		return 0
	}
	n := 0
	for i := idx + 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n++
	}
	return n
}
