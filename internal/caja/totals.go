package caja

import (
	"github.com/shopspring/decimal"

	"caja_app_echo/internal/models"
)

// TotalDue sums AmountToPay over the selected installments only.
func TotalDue(ledger []models.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range ledger {
		if inst.Selected {
			total = total.Add(inst.AmountToPay)
		}
	}
	return total
}

// Difference is totalPaid minus totalDue; zero means the entered payment
// matches the selection exactly and submission may proceed.
func Difference(entry models.PaymentEntry, ledger []models.Installment) decimal.Decimal {
	return entry.Total().Sub(TotalDue(ledger))
}
