package caja

import (
	"github.com/shopspring/decimal"

	"caja_app_echo/internal/models"
)

// Distribute greedily allocates total across the ledger in iteration order:
// each installment takes min(amountDue, remaining) until the total runs out,
// the rest is deselected and zeroed. Deterministic and idempotent for a given
// ledger order and total.
func Distribute(ledger []models.Installment, total decimal.Decimal) {
	remaining := total
	for i := range ledger {
		inst := &ledger[i]

		if remaining.LessThanOrEqual(decimal.Zero) {
			inst.Selected = false
			inst.AmountToPay = decimal.Zero
			continue
		}

		pay := decimal.Min(inst.AmountDue, remaining)
		remaining = remaining.Sub(pay)

		inst.AmountToPay = pay
		inst.Selected = pay.GreaterThan(decimal.Zero)
	}
}

// Toggle selects or deselects the installment with the given id.
//
// Selecting is gated by Eligibility and silently ignored when the installment
// is not currently eligible; the assigned amount is left untouched.
// Deselecting zeroes the installment and cascades: every same-concept
// installment in a strictly later period is deselected and zeroed too, so a
// later payment never survives the removal of its prerequisite.
func Toggle(ledger []models.Installment, id int, selected bool) {
	idx := -1
	for i := range ledger {
		if ledger[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	if selected {
		if !Eligibility(ledger)[idx] {
			return
		}
		ledger[idx].Selected = true
		return
	}

	ledger[idx].Selected = false
	ledger[idx].AmountToPay = decimal.Zero

	periods := DistinctPeriods(ledger)
	current := periodIndex(periods, ledger[idx].Period)
	for i := range ledger {
		inst := &ledger[i]
		if inst.Concept == ledger[idx].Concept && periodIndex(periods, inst.Period) > current {
			inst.Selected = false
			inst.AmountToPay = decimal.Zero
		}
	}
}

// SetAmount is the manual override path: it assigns amount to the installment
// directly and flips Selected on whenever the amount is positive. It neither
// clamps to the amount due nor re-runs Distribute; the resulting difference
// is surfaced through the totals instead.
func SetAmount(ledger []models.Installment, id int, amount decimal.Decimal) {
	for i := range ledger {
		if ledger[i].ID == id {
			ledger[i].AmountToPay = amount
			ledger[i].Selected = amount.GreaterThan(decimal.Zero)
			return
		}
	}
}

// PayAll force-selects every installment at its full amount due and returns
// the grand total the active bucket must be set to.
func PayAll(ledger []models.Installment) decimal.Decimal {
	total := decimal.Zero
	for i := range ledger {
		ledger[i].Selected = true
		ledger[i].AmountToPay = ledger[i].AmountDue
		total = total.Add(ledger[i].AmountDue)
	}
	return total
}
