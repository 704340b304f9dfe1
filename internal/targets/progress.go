package targets

import (
	"strings"

	"sales_targets/internal/report"
)

// Progress compares one assigned slot with what its employee actually sold.
type Progress struct {
	Slot
	Actual   float64 `json:"actual"`
	Reached1 bool    `json:"reached1"`
	Reached2 bool    `json:"reached2"`
}

// Compare walks every assigned slot and sums the dish amount sold at the
// slot's branch, in its category, by cashiers whose name contains the
// slot's surname as a word.
func Compare(store *Store, model *report.Model) []Progress {
	var out []Progress
	for _, branch := range store.Branches() {
		slots, err := store.Targets(branch)
		if err != nil {
			continue
		}
		rows := model.Rows(branch)
		for _, slot := range slots {
			if !slot.Assigned {
				continue
			}
			var actual float64
			for _, row := range rows {
				if sameCategory(row.DishCategory, slot.Category) && cashierMatches(row.Cashier, slot.EmployeeSurname) {
					actual += row.DishAmount
				}
			}
			out = append(out, Progress{
				Slot:     slot,
				Actual:   actual,
				Reached1: actual >= slot.Target1,
				Reached2: actual >= slot.Target2,
			})
		}
	}
	return out
}

func sameCategory(rowCategory, slotCategory string) bool {
	rowCategory = strings.TrimSpace(rowCategory)
	if rowCategory == "" {
		rowCategory = report.Uncategorized
	}
	return strings.EqualFold(rowCategory, strings.TrimSpace(slotCategory))
}

func cashierMatches(cashier, surname string) bool {
	if surname == "" {
		return false
	}
	for _, part := range strings.Fields(cashier) {
		if strings.EqualFold(part, surname) {
			return true
		}
	}
	return false
}
