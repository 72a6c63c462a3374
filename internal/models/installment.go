package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The billing backend sends and expects plain JSON numbers for amounts.
	decimal.MarshalJSONWithoutQuotes = true
}

// Installment is one periodic, concept-tagged charge owed by a tenant.
// AmountDue is fixed once fetched; AmountToPay and Selected are the mutable
// payment-building state.
type Installment struct {
	ID             int             `json:"id"`
	DetailID       int             `json:"detail_id"`
	Period         string          `json:"period"`
	Concept        string          `json:"concept"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	Interest       decimal.Decimal `json:"interest"`
	AmountToPay    decimal.Decimal `json:"amount_to_pay"`
	Selected       bool            `json:"selected"`
	DueDate        string          `json:"due_date"` // "YYYY-MM-DD" or "DD-MM-YYYY", kept as received
	Overdue        bool            `json:"overdue"`
	TariffID       int             `json:"tariff_id"`
}
