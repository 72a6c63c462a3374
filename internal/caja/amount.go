package caja

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	bucketAllowed = regexp.MustCompile(`[^\d,]`)
	manualAllowed = regexp.MustCompile(`[^\d,.]`)
)

// ParseBucketAmount parses a raw payment-method input. Only digits and commas
// survive sanitization; commas act as decimal points. Anything unparseable
// yields zero.
func ParseBucketAmount(raw string) decimal.Decimal {
	return parseAmount(raw, bucketAllowed)
}

// ParseManualAmount parses a raw per-installment amount input. Unlike the
// bucket path, dots are allowed through as well.
func ParseManualAmount(raw string) decimal.Decimal {
	return parseAmount(raw, manualAllowed)
}

func parseAmount(raw string, strip *regexp.Regexp) decimal.Decimal {
	clean := strip.ReplaceAllString(raw, "")
	clean = strings.ReplaceAll(clean, ",", ".")
	n, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return n
}
