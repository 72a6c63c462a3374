package caja

import "caja_app_echo/internal/models"

// Eligibility computes, per installment, whether the cashier may select it.
// The rule enforces paying in period order per concept:
//
//   - installments of the first period are always eligible;
//   - otherwise eligibility follows the Selected flag of the same-concept
//     installment in the immediately preceding period;
//   - when that concept has no charge in the preceding period, the last
//     same-concept installment of any earlier period decides; a concept with
//     no earlier charge at all is eligible.
//
// The result is index-aligned with the ledger.
func Eligibility(ledger []models.Installment) []bool {
	periods := DistinctPeriods(ledger)
	out := make([]bool, len(ledger))

	for i, inst := range ledger {
		idx := periodIndex(periods, inst.Period)
		if idx == 0 {
			out[i] = true
			continue
		}

		previous := periods[idx-1]
		if prev, ok := findByPeriodConcept(ledger, previous, inst.Concept); ok {
			out[i] = prev.Selected
			continue
		}

		// No charge for this concept in the immediately preceding period:
		// fall back to the last earlier-period installment of the concept.
		var last *models.Installment
		for j := range ledger {
			c := &ledger[j]
			if c.Concept == inst.Concept && periodIndex(periods, c.Period) < idx {
				last = c
			}
		}
		if last == nil {
			out[i] = true
		} else {
			out[i] = last.Selected
		}
	}
	return out
}

func findByPeriodConcept(ledger []models.Installment, period, concept string) (*models.Installment, bool) {
	for i := range ledger {
		if ledger[i].Period == period && ledger[i].Concept == concept {
			return &ledger[i], true
		}
	}
	return nil, false
}
