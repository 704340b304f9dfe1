// Package report reshapes flat OLAP rows into the department and category
// views used by the sales screens.
package report

import (
	"time"

	"sales_targets/internal/iiko"
)

const (
	Uncategorized        = "Uncategorized"
	UnassignedDepartment = "Unassigned"
)

// Model is one consistent snapshot of a sync. It is never mutated after
// Transform returns.
type Model struct {
	Range    iiko.DateRange
	SyncedAt time.Time

	departments  []string
	byDepartment map[string][]iiko.ReportRow
	categories   []string
	byCategory   map[string][]iiko.ReportRow
	size         int
}

// CategoryTotal is the dish amount sold in one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Rows     int     `json:"rows"`
}

func (m *Model) Departments() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.departments...)
}

func (m *Model) Categories() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.categories...)
}

func (m *Model) Rows(department string) []iiko.ReportRow {
	if m == nil {
		return nil
	}
	return append([]iiko.ReportRow(nil), m.byDepartment[department]...)
}

func (m *Model) CategoryRows(category string) []iiko.ReportRow {
	if m == nil {
		return nil
	}
	return append([]iiko.ReportRow(nil), m.byCategory[category]...)
}

func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return m.size
}

// CategoryTotals sums dish amounts of a department per category, in the
// model's category order.
func (m *Model) CategoryTotals(department string) []CategoryTotal {
	if m == nil {
		return nil
	}
	sums := make(map[string]*CategoryTotal)
	for _, row := range m.byDepartment[department] {
		cat := categoryKey(row.DishCategory)
		total, ok := sums[cat]
		if !ok {
			total = &CategoryTotal{Category: cat}
			sums[cat] = total
		}
		total.Amount += row.DishAmount
		total.Rows++
	}

	out := make([]CategoryTotal, 0, len(sums))
	for _, cat := range m.categories {
		if total, ok := sums[cat]; ok {
			out = append(out, *total)
		}
	}
	return out
}
