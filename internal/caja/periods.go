package caja

import "caja_app_echo/internal/models"

// DistinctPeriods returns the distinct period labels of the ledger in
// first-occurrence order. That order is the total order periods are paid in.
func DistinctPeriods(ledger []models.Installment) []string {
	seen := make(map[string]bool)
	var periods []string
	for _, inst := range ledger {
		if !seen[inst.Period] {
			seen[inst.Period] = true
			periods = append(periods, inst.Period)
		}
	}
	return periods
}

func periodIndex(periods []string, period string) int {
	for i, p := range periods {
		if p == period {
			return i
		}
	}
	return -1
}

// PeriodsWithSelection reports, per period, whether any installment of that
// period is currently selected.
func PeriodsWithSelection(ledger []models.Installment, periods []string) []bool {
	out := make([]bool, len(periods))
	for i, period := range periods {
		for _, inst := range ledger {
			if inst.Period == period && inst.Selected {
				out[i] = true
				break
			}
		}
	}
	return out
}

// LastPeriodWithSelection returns the index of the last period that has any
// selection, or -1 when nothing is selected.
func LastPeriodWithSelection(withSelection []bool) int {
	last := -1
	for i, sel := range withSelection {
		if sel {
			last = i
		}
	}
	return last
}

// PeriodComplete reports, per period, whether every installment of that
// period is selected. A period with no installments is not complete.
func PeriodComplete(ledger []models.Installment, periods []string) []bool {
	out := make([]bool, len(periods))
	for i, period := range periods {
		count := 0
		all := true
		for _, inst := range ledger {
			if inst.Period != period {
				continue
			}
			count++
			if !inst.Selected {
				all = false
			}
		}
		out[i] = count > 0 && all
	}
	return out
}
