package targets

import (
	"testing"
	"time"

	"sales_targets/internal/iiko"
	"sales_targets/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	rng, err := iiko.ParseDateRange("2024-05-01", "2024-05-10")
	require.NoError(t, err)
	model := report.Transform([]iiko.ReportRow{
		{Cashier: "Smith John", Department: "B1", DishName: "Burger", DishCategory: "Grill", DishAmount: 6},
		{Cashier: "SMITH John", Department: "B1", DishName: "Steak", DishCategory: "grill", DishAmount: 5},
		{Cashier: "Smithson Ann", Department: "B1", DishName: "Ribs", DishCategory: "Grill", DishAmount: 100},
		{Cashier: "Smith John", Department: "B2", DishName: "Ribs", DishCategory: "Grill", DishAmount: 100},
		{Cashier: "Smith John", Department: "B1", DishName: "Water", DishCategory: "", DishAmount: 3},
		{Cashier: "Doe Jane", Department: "B1", DishName: "Latte", DishCategory: "Coffee", DishAmount: 2},
	}, rng, time.Now())

	store := NewStore(10)
	store.Reset([]string{"B1"})
	require.NoError(t, store.SetDishTarget("B1", 0, "Grill", num(10), num(20), "Smith"))
	require.NoError(t, store.SetDishTarget("B1", 2, report.Uncategorized, num(1), num(3), "smith"))
	require.NoError(t, store.SetDishTarget("B1", 3, "Coffee", num(5), num(8), "Roe"))

	progress := Compare(store, model)
	require.Len(t, progress, 3)

	assert.Equal(t, 11.0, progress[0].Actual)
	assert.True(t, progress[0].Reached1)
	assert.False(t, progress[0].Reached2)

	assert.Equal(t, 2, progress[1].Position)
	assert.Equal(t, 3.0, progress[1].Actual)
	assert.True(t, progress[1].Reached2)

	assert.Zero(t, progress[2].Actual)
	assert.False(t, progress[2].Reached1)
}

func TestCompareWithoutReport(t *testing.T) {
	store := NewStore(10)
	store.Reset([]string{"B1"})
	require.NoError(t, store.SetDishTarget("B1", 0, "Grill", num(10), num(20), "Smith"))

	progress := Compare(store, nil)
	require.Len(t, progress, 1)
	assert.Zero(t, progress[0].Actual)
}
