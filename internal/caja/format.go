package caja

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount for display: rounded to a whole number with
// comma thousands separators, e.g. 1234567.8 -> "1,234,568".
func FormatAmount(v decimal.Decimal) string {
	s := v.Round(0).StringFixed(0)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
