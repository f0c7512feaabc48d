package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"expensehub-server/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves aggregates from in-memory slices so the engine's joining
// and grouping logic can be exercised without a database.
type fakeStore struct {
	expenses   []models.Expense
	incomes    []models.Income
	budgets    []models.Budget
	categories []models.Category

	aggregateExpenseCalls int32
	byCategoryErr         error
}

func (f *fakeStore) AggregateExpenses(_ context.Context, userID int64, win Window, scope Scope) (Aggregate, error) {
	atomic.AddInt32(&f.aggregateExpenseCalls, 1)
	var agg Aggregate
	for _, e := range f.expenses {
		if e.UserID != userID || !win.Contains(e.Date) {
			continue
		}
		if !scope.Overall && e.CategoryID != scope.CategoryID {
			continue
		}
		agg.Sum += e.Amount
		agg.Count++
	}
	return agg, nil
}

func (f *fakeStore) AggregateIncomes(_ context.Context, userID int64, win Window) (Aggregate, error) {
	var agg Aggregate
	for _, i := range f.incomes {
		if i.UserID != userID || !win.Contains(i.Date) {
			continue
		}
		agg.Sum += i.Amount
		agg.Count++
	}
	return agg, nil
}

func (f *fakeStore) ExpensesByCategory(_ context.Context, userID int64, win Window) ([]CategorySum, error) {
	if f.byCategoryErr != nil {
		return nil, f.byCategoryErr
	}
	sums := map[string]float64{}
	for _, e := range f.expenses {
		if e.UserID == userID && win.Contains(e.Date) {
			sums[e.CategoryID] += e.Amount
		}
	}
	out := make([]CategorySum, 0, len(sums))
	for id, sum := range sums {
		out = append(out, CategorySum{CategoryID: id, Sum: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sum > out[j].Sum })
	return out, nil
}

func (f *fakeStore) RecentExpenses(_ context.Context, userID int64, limit int) ([]models.Expense, error) {
	var out []models.Expense
	for _, e := range f.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) RecentIncomes(_ context.Context, userID int64, limit int) ([]models.Income, error) {
	var out []models.Income
	for _, i := range f.incomes {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID int64) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range f.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByType(_ context.Context, categoryType string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if c.Type == categoryType {
			out = append(out, c)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func expense(id int64, amount float64, day time.Time, categoryID string) models.Expense {
	return models.Expense{ID: id, UserID: 1, Amount: amount, Date: day, CategoryID: categoryID}
}

const testUser int64 = 1

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 20.0, PercentChange(60, 50), 1e-9)
	assert.InDelta(t, -50.0, PercentChange(25, 50), 1e-9)
	assert.Zero(t, PercentChange(100, 0), "no prior data reports zero change")
	assert.Zero(t, PercentChange(0, 0))
}

func TestAssembleTotalsAndChange(t *testing.T) {
	store := &fakeStore{
		expenses: []models.Expense{
			expense(1, 10, date(2024, time.March, 2), "food"),
			expense(2, 20, date(2024, time.March, 10), "food"),
			expense(3, 30, date(2024, time.March, 31), "transport"),
			expense(4, 999, date(2024, time.April, 1), "food"), // outside window
			expense(5, 50, date(2024, time.February, 15), "food"),
		},
		incomes: []models.Income{
			{ID: 1, UserID: testUser, Amount: 200, Date: date(2024, time.March, 5), CategoryID: "salary"},
		},
	}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)

	assert.InDelta(t, 60.0, payload.Stats.Expenses.Value, 1e-9)
	assert.InDelta(t, 20.0, payload.Stats.Expenses.Change, 1e-9, "60 vs 50 in February")
	assert.InDelta(t, 200.0, payload.Stats.Income.Value, 1e-9)
	assert.Zero(t, payload.Stats.Income.Change, "no February income")
	assert.InDelta(t, 140.0, payload.Stats.NetBalance, 1e-9)
	assert.Equal(t, RangeMonthly, payload.Meta.Range)
}

func TestAssembleCustomRangeReportsZeroChange(t *testing.T) {
	store := &fakeStore{
		expenses: []models.Expense{
			expense(1, 100, date(2024, time.March, 2), "food"),
			expense(2, 500, date(2024, time.February, 2), "food"),
		},
	}
	engine := NewEngine(store, store, store)

	q := RangeQuery{Range: RangeCustom, From: date(2024, time.March, 1), To: date(2024, time.March, 31)}
	payload, err := engine.Assemble(context.Background(), testUser, q, testNow)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, payload.Stats.Expenses.Value, 1e-9)
	assert.Zero(t, payload.Stats.Expenses.Change, "custom ranges never compare against a prior period")
	assert.Equal(t, RangeCustom, payload.Meta.Range)
}

func TestAssembleBudgetStatusThresholds(t *testing.T) {
	store := &fakeStore{
		expenses: []models.Expense{
			expense(1, 799, date(2024, time.March, 3), "food"),
			expense(2, 800, date(2024, time.March, 3), "transport"),
			expense(3, 1200, date(2024, time.March, 3), "rent"),
		},
		budgets: []models.Budget{
			{ID: 1, UserID: testUser, Amount: 1000, Period: models.PeriodMonthly, CategoryID: strPtr("food")},
			{ID: 2, UserID: testUser, Amount: 1000, Period: models.PeriodMonthly, CategoryID: strPtr("transport")},
			{ID: 3, UserID: testUser, Amount: 1000, Period: models.PeriodMonthly, CategoryID: strPtr("rent")},
		},
	}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)
	require.Len(t, payload.Budgets, 3)

	byID := map[int64]BudgetWithSpent{}
	for _, b := range payload.Budgets {
		byID[b.ID] = b
	}
	assert.Equal(t, BudgetStatusOK, byID[1].Status)
	assert.InDelta(t, 79.9, byID[1].Utilization, 1e-9)
	assert.Equal(t, BudgetStatusWarning, byID[2].Status)
	assert.Equal(t, BudgetStatusOver, byID[3].Status)
	assert.InDelta(t, 120.0, byID[3].Utilization, 1e-9)
	assert.Equal(t, 2, payload.Stats.BudgetAlerts, "warning and over both alert")
}

func TestAssembleDuplicateBudgetsShareSpent(t *testing.T) {
	store := &fakeStore{
		expenses: []models.Expense{
			expense(1, 500, date(2024, time.March, 3), "food"),
		},
		budgets: []models.Budget{
			{ID: 1, UserID: testUser, Amount: 1000, Period: models.PeriodMonthly},
			{ID: 2, UserID: testUser, Amount: 2000, Period: models.PeriodMonthly},
		},
	}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)
	require.Len(t, payload.Budgets, 2)

	assert.InDelta(t, 500.0, payload.Budgets[0].Spent, 1e-9)
	assert.InDelta(t, 500.0, payload.Budgets[1].Spent, 1e-9)

	// Two dashboard aggregates (current and previous month) plus exactly one
	// for the collapsed budget group.
	assert.Equal(t, int32(3), atomic.LoadInt32(&store.aggregateExpenseCalls))
}

func TestAssembleZeroAmountBudget(t *testing.T) {
	store := &fakeStore{
		expenses: []models.Expense{
			expense(1, 50, date(2024, time.March, 3), "food"),
		},
		budgets: []models.Budget{
			{ID: 1, UserID: testUser, Amount: 0, Period: models.PeriodMonthly},
		},
	}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)
	require.Len(t, payload.Budgets, 1)
	assert.Zero(t, payload.Budgets[0].Utilization)
	assert.Equal(t, BudgetStatusOK, payload.Budgets[0].Status)
}

func TestAssembleChartFallsBackForUnknownCategory(t *testing.T) {
	store := &fakeStore{
		expenses: []models.Expense{
			expense(1, 120, date(2024, time.March, 3), "food"),
			expense(2, 80, date(2024, time.March, 4), "ghost"),
		},
		categories: []models.Category{
			{ID: "food", Name: "Food & Dining", Type: models.CategoryTypeExpense, Color: "#FF6B6B"},
		},
	}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)
	require.Len(t, payload.ChartData, 2)

	assert.Equal(t, ChartPoint{Name: "Food & Dining", Value: 120, Color: "#FF6B6B"}, payload.ChartData[0])
	assert.Equal(t, ChartPoint{Name: "Unknown", Value: 80, Color: "#2ECC71"}, payload.ChartData[1])
}

func TestAssembleRecentTransactionsCappedAtFive(t *testing.T) {
	store := &fakeStore{}
	for day := 1; day <= 7; day++ {
		store.expenses = append(store.expenses,
			expense(int64(day), 10, date(2024, time.March, day), "food"))
	}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)

	require.Len(t, payload.RecentExpenses, 5)
	assert.Equal(t, int64(7), payload.RecentExpenses[0].ID, "newest first")
	assert.Equal(t, int64(3), payload.RecentExpenses[4].ID)
}

func TestAssembleFailsWhenSubReadFails(t *testing.T) {
	store := &fakeStore{byCategoryErr: errors.New("connection reset")}
	engine := NewEngine(store, store, store)

	_, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.Error(t, err)
}

func TestAssembleEmptyStateHasNoNils(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, store, store)

	payload, err := engine.Assemble(context.Background(), testUser, RangeQuery{Range: RangeMonthly}, testNow)
	require.NoError(t, err)

	assert.NotNil(t, payload.RecentExpenses)
	assert.NotNil(t, payload.RecentIncomes)
	assert.NotNil(t, payload.Budgets)
	assert.NotNil(t, payload.ChartData)
	assert.Zero(t, payload.Stats.NetBalance)
}
