package boq

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize converts a locale-ambiguous quantity string into a decimal.
//
// The last comma, if any, is the decimal separator; every other comma and
// every dot is a thousands separator. Without a comma the value is an integer
// with dot or comma grouping. Empty or unparsable input yields an invalid
// NullDecimal rather than an error.
func Normalize(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}
	}

	var cleaned string
	if i := strings.LastIndex(s, ","); i >= 0 {
		intPart := stripSeparators(s[:i])
		frac := stripSeparators(s[i+1:])
		switch {
		case intPart == "" && frac == "":
			return decimal.NullDecimal{}
		case frac == "":
			cleaned = intPart
		case intPart == "" || intPart == "-" || intPart == "+":
			cleaned = intPart + "0." + frac
		default:
			cleaned = intPart + "." + frac
		}
	} else {
		cleaned = stripSeparators(s)
	}

	// decimal.NewFromString also takes exponents, which would let a
	// quantity like "1e200000000" through
	if !plainNumber.MatchString(cleaned) {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var plainNumber = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

var separatorStripper = strings.NewReplacer(".", "", ",", "")

func stripSeparators(s string) string {
	return separatorStripper.Replace(s)
}
