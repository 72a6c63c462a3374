package models

import "github.com/shopspring/decimal"

// Tenant is the read-only tenant snapshot returned by the billing backend.
type Tenant struct {
	Name      string          `json:"name"`
	Property  string          `json:"property"`
	Type      string          `json:"type"`
	TaxID     string          `json:"tax_id"`
	DueDay    int             `json:"due_day"`
	TotalDebt decimal.Decimal `json:"total_debt"`
}
