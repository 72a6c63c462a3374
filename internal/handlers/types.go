package handlers

import (
	"github.com/shopspring/decimal"

	"caja_app_echo/internal/models"
)

// OpenSessionRequest starts a cashier session for a work id. Fecha is an
// optional reference date passed through to the billing backend; Usuario
// identifies the operator and falls back to the context operator.
type OpenSessionRequest struct {
	IDWork  int    `json:"id_work" validate:"required,min=1"`
	Fecha   string `json:"fecha"`
	Usuario string `json:"usuario"`
}

// AmountRequest carries a raw amount as typed by the cashier. Sanitization
// and parsing happen server-side so every client gets the same rules.
type AmountRequest struct {
	Value string `json:"value"`
}

// ToggleRequest selects or deselects an installment.
type ToggleRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

// InstallmentView is an installment plus its current eligibility.
type InstallmentView struct {
	models.Installment
	Eligible bool `json:"eligible"`
}

// SessionResponse is the full screen state: ledger, payment entry, derived
// totals and period derivations, recomputed from the snapshot on every read.
type SessionResponse struct {
	ID           string               `json:"id"`
	Status       models.SessionStatus `json:"status"`
	Tenant       models.Tenant        `json:"tenant"`
	Operator     string               `json:"operator"`
	TransferMode bool                 `json:"transfer_mode"`
	CashEnabled  bool                 `json:"cash_enabled"`

	Installments []InstallmentView    `json:"installments"`
	Payments     models.PaymentEntry  `json:"payments"`
	ActiveMethod models.PaymentMethod `json:"active_method,omitempty"`

	TotalDue   decimal.Decimal `json:"total_due"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	Difference decimal.Decimal `json:"difference"`

	Periods                 []string `json:"periods"`
	PeriodsWithSelection    []bool   `json:"periods_with_selection"`
	LastPeriodWithSelection int      `json:"last_period_with_selection"`
	PeriodComplete          []bool   `json:"period_complete"`

	LastOutcome models.SubmitOutcome `json:"last_outcome,omitempty"`
	LastReceipt *models.Receipt      `json:"last_receipt,omitempty"`
}
