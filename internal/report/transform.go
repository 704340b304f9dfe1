package report

import (
	"strings"
	"time"

	"sales_targets/internal/iiko"
)

// Transform groups rows by department and indexes them by category. Row
// order inside each group is the order the server returned.
func Transform(rows []iiko.ReportRow, rng iiko.DateRange, syncedAt time.Time) *Model {
	m := &Model{
		Range:        rng,
		SyncedAt:     syncedAt,
		byDepartment: make(map[string][]iiko.ReportRow),
		byCategory:   make(map[string][]iiko.ReportRow),
		size:         len(rows),
	}

	for _, row := range rows {
		dept := departmentKey(row.Department)
		if _, seen := m.byDepartment[dept]; !seen {
			m.departments = append(m.departments, dept)
		}
		m.byDepartment[dept] = append(m.byDepartment[dept], row)

		cat := categoryKey(row.DishCategory)
		if _, seen := m.byCategory[cat]; !seen {
			m.categories = append(m.categories, cat)
		}
		m.byCategory[cat] = append(m.byCategory[cat], row)
	}

	return m
}

func departmentKey(department string) string {
	if d := strings.TrimSpace(department); d != "" {
		return d
	}
	return UnassignedDepartment
}

func categoryKey(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return Uncategorized
}
