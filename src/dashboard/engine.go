package dashboard

import (
	"context"
	"sync"
	"time"

	"expensehub-server/src/models"

	"golang.org/x/sync/errgroup"
)

const (
	recentLimit    = 5
	alertThreshold = 80.0

	// Display fallbacks for expenses whose category no longer resolves.
	unknownCategoryName  = "Unknown"
	unknownCategoryColor = "#2ECC71"
)

const (
	BudgetStatusOK      = "ok"
	BudgetStatusWarning = "warning"
	BudgetStatusOver    = "over"
)

type Aggregate struct {
	Sum   float64
	Count int
}

type CategorySum struct {
	CategoryID string
	Sum        float64
}

// Scope selects which expense categories an aggregate covers: one category,
// or all of them. It is comparable, so identical budget scopes collapse into
// one aggregation.
type Scope struct {
	CategoryID string
	Overall    bool
}

func ScopeAll() Scope {
	return Scope{Overall: true}
}

func ScopeCategory(categoryID string) Scope {
	return Scope{CategoryID: categoryID}
}

func ScopeForBudget(b models.Budget) Scope {
	if b.CategoryID == nil {
		return ScopeAll()
	}
	return ScopeCategory(*b.CategoryID)
}

type TransactionStore interface {
	AggregateExpenses(ctx context.Context, userID int64, win Window, scope Scope) (Aggregate, error)
	AggregateIncomes(ctx context.Context, userID int64, win Window) (Aggregate, error)
	ExpensesByCategory(ctx context.Context, userID int64, win Window) ([]CategorySum, error)
	RecentExpenses(ctx context.Context, userID int64, limit int) ([]models.Expense, error)
	RecentIncomes(ctx context.Context, userID int64, limit int) ([]models.Income, error)
}

type BudgetStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Budget, error)
}

type CategoryStore interface {
	ListByType(ctx context.Context, categoryType string) ([]models.Category, error)
}

type StatValue struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

type Stats struct {
	Income       StatValue `json:"income"`
	Expenses     StatValue `json:"expenses"`
	NetBalance   float64   `json:"net_balance"`
	BudgetAlerts int       `json:"budget_alerts"`
}

type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// BudgetWithSpent is a Budget plus its computed utilization for the current
// period window. Spent is never persisted.
type BudgetWithSpent struct {
	models.Budget
	Spent       float64 `json:"spent"`
	Utilization float64 `json:"utilization"`
	Status      string  `json:"status"`
}

type Meta struct {
	Range string    `json:"range"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

type Payload struct {
	Stats          Stats             `json:"stats"`
	RecentExpenses []models.Expense  `json:"recent_expenses"`
	RecentIncomes  []models.Income   `json:"recent_incomes"`
	Budgets        []BudgetWithSpent `json:"budgets"`
	ChartData      []ChartPoint      `json:"chart_data"`
	Meta           Meta              `json:"meta"`
}

type Engine struct {
	transactions TransactionStore
	budgets      BudgetStore
	categories   CategoryStore
}

func NewEngine(transactions TransactionStore, budgets BudgetStore, categories CategoryStore) *Engine {
	return &Engine{
		transactions: transactions,
		budgets:      budgets,
		categories:   categories,
	}
}

// PercentChange never divides by zero: with no prior-period data the change
// is reported as 0.
func PercentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// Assemble fans out the independent aggregate reads, then resolves budget
// utilization, and joins everything into one payload. Any failing sub-read
// fails the whole assembly; a partially populated dashboard is worse than an
// error.
func (e *Engine) Assemble(ctx context.Context, userID int64, q RangeQuery, now time.Time) (*Payload, error) {
	current, comparison := ResolveRange(q, now)
	aux := Auxiliary(now)

	var (
		curExpenses  Aggregate
		prevExpenses Aggregate
		curIncomes   Aggregate
		prevIncomes  Aggregate
		budgets      []models.Budget
		recentExp    []models.Expense
		recentInc    []models.Income
		byCategory   []CategorySum
		categories   []models.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		curExpenses, err = e.transactions.AggregateExpenses(gctx, userID, current, ScopeAll())
		return err
	})
	g.Go(func() error {
		var err error
		curIncomes, err = e.transactions.AggregateIncomes(gctx, userID, current)
		return err
	})
	if comparison != nil {
		prev := *comparison
		g.Go(func() error {
			var err error
			prevExpenses, err = e.transactions.AggregateExpenses(gctx, userID, prev, ScopeAll())
			return err
		})
		g.Go(func() error {
			var err error
			prevIncomes, err = e.transactions.AggregateIncomes(gctx, userID, prev)
			return err
		})
	}
	g.Go(func() error {
		var err error
		budgets, err = e.budgets.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recentExp, err = e.transactions.RecentExpenses(gctx, userID, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		recentInc, err = e.transactions.RecentIncomes(gctx, userID, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = e.transactions.ExpensesByCategory(gctx, userID, current)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = e.categories.ListByType(gctx, models.CategoryTypeExpense)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	budgetsWithSpent, alerts, err := e.budgetUtilization(ctx, userID, budgets, aux)
	if err != nil {
		return nil, err
	}

	if recentExp == nil {
		recentExp = []models.Expense{}
	}
	if recentInc == nil {
		recentInc = []models.Income{}
	}

	return &Payload{
		Stats: Stats{
			Income: StatValue{
				Value:  curIncomes.Sum,
				Change: PercentChange(curIncomes.Sum, prevIncomes.Sum),
			},
			Expenses: StatValue{
				Value:  curExpenses.Sum,
				Change: PercentChange(curExpenses.Sum, prevExpenses.Sum),
			},
			NetBalance:   curIncomes.Sum - curExpenses.Sum,
			BudgetAlerts: alerts,
		},
		RecentExpenses: recentExp,
		RecentIncomes:  recentInc,
		Budgets:        budgetsWithSpent,
		ChartData:      buildChart(byCategory, categories),
		Meta: Meta{
			Range: rangeLabel(q, comparison),
			From:  current.Start,
			To:    current.End,
		},
	}, nil
}

type budgetKey struct {
	period string
	scope  Scope
}

// budgetUtilization computes "spent" once per distinct (period, scope) key
// and shares the value across every budget in that group, so duplicate
// budgets can never diverge.
func (e *Engine) budgetUtilization(ctx context.Context, userID int64, budgets []models.Budget, aux AuxWindows) ([]BudgetWithSpent, int, error) {
	groups := make(map[budgetKey]struct{})
	for _, b := range budgets {
		groups[budgetKey{period: b.Period, scope: ScopeForBudget(b)}] = struct{}{}
	}

	spent := make(map[budgetKey]float64, len(groups))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for key := range groups {
		key := key
		win := WindowForPeriod(key.period, aux)
		g.Go(func() error {
			agg, err := e.transactions.AggregateExpenses(gctx, userID, win, key.scope)
			if err != nil {
				return err
			}
			mu.Lock()
			spent[key] = agg.Sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	alerts := 0
	out := make([]BudgetWithSpent, 0, len(budgets))
	for _, b := range budgets {
		s := spent[budgetKey{period: b.Period, scope: ScopeForBudget(b)}]
		utilization := 0.0
		if b.Amount > 0 {
			utilization = s / b.Amount * 100
		}
		status := BudgetStatusOK
		switch {
		case utilization >= 100:
			status = BudgetStatusOver
		case utilization >= alertThreshold:
			status = BudgetStatusWarning
		}
		if utilization >= alertThreshold {
			alerts++
		}
		out = append(out, BudgetWithSpent{
			Budget:      b,
			Spent:       s,
			Utilization: utilization,
			Status:      status,
		})
	}
	return out, alerts, nil
}

func buildChart(byCategory []CategorySum, categories []models.Category) []ChartPoint {
	meta := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		meta[c.ID] = c
	}

	points := make([]ChartPoint, 0, len(byCategory))
	for _, cs := range byCategory {
		name := unknownCategoryName
		color := unknownCategoryColor
		if c, ok := meta[cs.CategoryID]; ok {
			name = c.Name
			color = c.Color
		}
		points = append(points, ChartPoint{Name: name, Value: cs.Sum, Color: color})
	}
	return points
}

// rangeLabel reports the range that was actually applied: a custom selection
// missing a bound resolves as monthly.
func rangeLabel(q RangeQuery, comparison *Window) string {
	if q.Range == RangeCustom && comparison == nil {
		return RangeCustom
	}
	if q.Range == RangeYearly {
		return RangeYearly
	}
	return RangeMonthly
}
