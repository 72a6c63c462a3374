package models

import "github.com/shopspring/decimal"

// PaymentMethod identifies which bucket the cashier is paying with.
// Values match the billing backend's vocabulary.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "EFECTIVO"
	PaymentMethodTransfer    PaymentMethod = "TRANSFERENCIA"
	PaymentMethodCheck       PaymentMethod = "CHEQUE"
	PaymentMethodWithholding PaymentMethod = "RETENCION"
)

// Valid reports whether m is one of the four known methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCheck, PaymentMethodWithholding:
		return true
	}
	return false
}

// PaymentEntry holds the four payment-method buckets being entered by the
// cashier. Exactly one of Cash/Transfer is usable at a time, depending on the
// tenant's payment mode.
type PaymentEntry struct {
	Cash        decimal.Decimal `json:"cash"`
	Transfer    decimal.Decimal `json:"transfer"`
	Check       decimal.Decimal `json:"check"`
	Withholding decimal.Decimal `json:"withholding"`
}

// Total returns the sum of the four buckets.
func (p PaymentEntry) Total() decimal.Decimal {
	return p.Cash.Add(p.Transfer).Add(p.Check).Add(p.Withholding)
}

// Get returns the bucket for the given method.
func (p PaymentEntry) Get(m PaymentMethod) decimal.Decimal {
	switch m {
	case PaymentMethodCash:
		return p.Cash
	case PaymentMethodTransfer:
		return p.Transfer
	case PaymentMethodCheck:
		return p.Check
	case PaymentMethodWithholding:
		return p.Withholding
	}
	return decimal.Zero
}

// Set assigns the bucket for the given method.
func (p *PaymentEntry) Set(m PaymentMethod, v decimal.Decimal) {
	switch m {
	case PaymentMethodCash:
		p.Cash = v
	case PaymentMethodTransfer:
		p.Transfer = v
	case PaymentMethodCheck:
		p.Check = v
	case PaymentMethodWithholding:
		p.Withholding = v
	}
}
