package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a cashier session
type SessionStatus string

const (
	SessionStatusIdle       SessionStatus = "idle"
	SessionStatusLoading    SessionStatus = "loading"
	SessionStatusReady      SessionStatus = "ready"
	SessionStatusSubmitting SessionStatus = "submitting"
)

// SubmitOutcome records how the last submission attempt ended
type SubmitOutcome string

const (
	SubmitOutcomeNone    SubmitOutcome = ""
	SubmitOutcomeSuccess SubmitOutcome = "success"
	SubmitOutcomeFailed  SubmitOutcome = "failed"
)

// Receipt is the result of a successfully registered payment.
type Receipt struct {
	Number    int             `json:"number"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Message   string          `json:"message"`
}

// Session is the server-side state of one cashier screen: the tenant
// snapshot, the installment ledger and the payment entry being built.
// It lives only in memory and is discarded on close or expiry.
type Session struct {
	ID       string `json:"id"`
	WorkID   int    `json:"work_id"`
	Operator string `json:"operator"`
	RefDate  string `json:"ref_date,omitempty"` // optional reference date forwarded on submit

	Tenant       Tenant        `json:"tenant"`
	TransferMode bool          `json:"transfer_mode"`
	Installments []Installment `json:"installments"`
	Payments     PaymentEntry  `json:"payments"`
	ActiveMethod PaymentMethod `json:"active_method,omitempty"`

	Status      SessionStatus `json:"status"`
	LastOutcome SubmitOutcome `json:"last_outcome,omitempty"`
	LastReceipt *Receipt      `json:"last_receipt,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Clone returns a copy of the session safe to hand out while the original
// keeps being mutated under its own lock.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Installments = make([]Installment, len(s.Installments))
	copy(cp.Installments, s.Installments)
	if s.LastReceipt != nil {
		r := *s.LastReceipt
		cp.LastReceipt = &r
	}
	return &cp
}
