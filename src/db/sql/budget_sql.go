package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensehub-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BudgetUpdate struct {
	Amount      *float64
	Period      *string
	SetCategory bool
	CategoryID  *string
}

const budgetColumns = `
	b.id, b.user_id, b.amount, b.period, b.category_id, b.created_at, b.updated_at,
	c.id, c.name, c.type, c.icon, c.color, c.is_default, c.created_at, c.updated_at
`

// scanBudget handles the LEFT JOIN on categories: every category column is
// nullable because overall budgets have no category.
func scanBudget(row pgx.Row) (*models.Budget, error) {
	var b models.Budget
	var catID, catName, catType, catIcon, catColor *string
	var catIsDefault *bool
	var catCreatedAt, catUpdatedAt *time.Time
	err := row.Scan(
		&b.ID, &b.UserID, &b.Amount, &b.Period, &b.CategoryID, &b.CreatedAt, &b.UpdatedAt,
		&catID, &catName, &catType, &catIcon, &catColor, &catIsDefault, &catCreatedAt, &catUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if catID != nil {
		b.Category = &models.Category{
			ID:        *catID,
			Name:      *catName,
			Type:      *catType,
			Icon:      *catIcon,
			Color:     *catColor,
			IsDefault: *catIsDefault,
			CreatedAt: *catCreatedAt,
			UpdatedAt: *catUpdatedAt,
		}
	}
	return &b, nil
}

// CreateBudget enforces the one-budget-per-(user, period, category) rule.
// The partial unique indexes back this up against concurrent inserts.
func CreateBudget(ctx context.Context, pool *pgxpool.Pool, budget *models.Budget) (*models.Budget, error) {
	var exists bool
	dupQuery := `
		SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND period = $2 AND category_id IS NOT DISTINCT FROM $3
		)
	`
	if err := pool.QueryRow(ctx, dupQuery, budget.UserID, budget.Period, budget.CategoryID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate budget: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	var id int64
	insert := `
		INSERT INTO budgets (user_id, amount, period, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := pool.QueryRow(ctx, insert, budget.UserID, budget.Amount, budget.Period, budget.CategoryID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert budget: %w", err)
	}
	return GetBudgetByID(ctx, pool, budget.UserID, id)
}

func GetBudgetByID(ctx context.Context, pool *pgxpool.Pool, userID, budgetID int64) (*models.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.id = $1 AND b.user_id = $2
	`
	b, err := scanBudget(pool.QueryRow(ctx, query, budgetID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query budget: %w", err)
	}
	return b, nil
}

func GetAllBudgetsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Budget, error) {
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = $1
		ORDER BY c.name ASC NULLS FIRST, b.period ASC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func UpdateBudget(ctx context.Context, pool *pgxpool.Pool, userID, budgetID int64, upd BudgetUpdate) (*models.Budget, error) {
	existing, err := GetBudgetByID(ctx, pool, userID, budgetID)
	if err != nil {
		return nil, err
	}

	if upd.Amount != nil {
		existing.Amount = *upd.Amount
	}
	if upd.Period != nil {
		existing.Period = *upd.Period
	}
	if upd.SetCategory {
		existing.CategoryID = upd.CategoryID
	}

	var exists bool
	dupQuery := `
		SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND period = $2 AND category_id IS NOT DISTINCT FROM $3 AND id <> $4
		)
	`
	if err := pool.QueryRow(ctx, dupQuery, userID, existing.Period, existing.CategoryID, budgetID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check duplicate budget: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	query := `
		UPDATE budgets
		SET amount = $1, period = $2, category_id = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`
	if _, err := pool.Exec(ctx, query, existing.Amount, existing.Period, existing.CategoryID, budgetID, userID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update budget: %w", err)
	}

	return GetBudgetByID(ctx, pool, userID, budgetID)
}

func DeleteBudget(ctx context.Context, pool *pgxpool.Pool, userID, budgetID int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
