package db

import (
	"context"
	"fmt"

	"expensehub-server/src/dashboard"
	"expensehub-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardStore adapts the pgx pool to the aggregation engine's store
// interfaces.
type DashboardStore struct {
	Pool *pgxpool.Pool
}

func NewDashboardStore(pool *pgxpool.Pool) *DashboardStore {
	return &DashboardStore{Pool: pool}
}

func (s *DashboardStore) AggregateExpenses(ctx context.Context, userID int64, win dashboard.Window, scope dashboard.Scope) (dashboard.Aggregate, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
			AND ($4 OR category_id = $5)
	`
	var agg dashboard.Aggregate
	err := s.Pool.QueryRow(ctx, query, userID, win.Start, win.End, scope.Overall, scope.CategoryID).
		Scan(&agg.Sum, &agg.Count)
	if err != nil {
		return dashboard.Aggregate{}, fmt.Errorf("aggregate expenses: %w", err)
	}
	return agg, nil
}

func (s *DashboardStore) AggregateIncomes(ctx context.Context, userID int64, win dashboard.Window) (dashboard.Aggregate, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM incomes
		WHERE user_id = $1 AND date >= $2 AND date <= $3
	`
	var agg dashboard.Aggregate
	err := s.Pool.QueryRow(ctx, query, userID, win.Start, win.End).Scan(&agg.Sum, &agg.Count)
	if err != nil {
		return dashboard.Aggregate{}, fmt.Errorf("aggregate incomes: %w", err)
	}
	return agg, nil
}

func (s *DashboardStore) ExpensesByCategory(ctx context.Context, userID int64, win dashboard.Window) ([]dashboard.CategorySum, error) {
	query := `
		SELECT category_id, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY category_id
		ORDER BY 2 DESC
	`
	rows, err := s.Pool.Query(ctx, query, userID, win.Start, win.End)
	if err != nil {
		return nil, fmt.Errorf("group expenses by category: %w", err)
	}
	defer rows.Close()

	var sums []dashboard.CategorySum
	for rows.Next() {
		var cs dashboard.CategorySum
		if err := rows.Scan(&cs.CategoryID, &cs.Sum); err != nil {
			return nil, err
		}
		sums = append(sums, cs)
	}
	return sums, rows.Err()
}

func (s *DashboardStore) RecentExpenses(ctx context.Context, userID int64, limit int) ([]models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		ORDER BY e.date DESC, e.id DESC
		LIMIT $2
	`
	rows, err := s.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadExpenseLabels(ctx, s.Pool, expenses); err != nil {
		return nil, err
	}

	out := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = *e
	}
	return out, nil
}

func (s *DashboardStore) RecentIncomes(ctx context.Context, userID int64, limit int) ([]models.Income, error) {
	query := `
		SELECT ` + incomeColumns + `
		FROM incomes i
		JOIN categories c ON c.id = i.category_id
		WHERE i.user_id = $1
		ORDER BY i.date DESC, i.id DESC
		LIMIT $2
	`
	rows, err := s.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent incomes: %w", err)
	}
	defer rows.Close()

	var incomes []models.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, *in)
	}
	return incomes, rows.Err()
}

func (s *DashboardStore) ListByUser(ctx context.Context, userID int64) ([]models.Budget, error) {
	return GetAllBudgetsForUser(ctx, s.Pool, userID)
}

func (s *DashboardStore) ListByType(ctx context.Context, categoryType string) ([]models.Category, error) {
	query := `
		SELECT id, name, type, icon, color, is_default, created_at, updated_at
		FROM categories
		WHERE type = $1
		ORDER BY name ASC
	`
	rows, err := s.Pool.Query(ctx, query, categoryType)
	if err != nil {
		return nil, fmt.Errorf("query categories by type: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
