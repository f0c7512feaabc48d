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

type IncomeFilter struct {
	CategoryID string
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
	Page       int
	Limit      int
}

type IncomeUpdate struct {
	Amount      *float64
	Date        *time.Time
	Source      *string
	Description *string
	CategoryID  *string
}

const incomeColumns = `
	i.id, i.user_id, i.amount, i.date, i.source, i.description, i.category_id,
	i.created_at, i.updated_at,
	c.id, c.name, c.type, c.icon, c.color, c.is_default, c.created_at, c.updated_at
`

func scanIncome(row pgx.Row) (*models.Income, error) {
	var in models.Income
	var c models.Category
	err := row.Scan(
		&in.ID, &in.UserID, &in.Amount, &in.Date, &in.Source, &in.Description, &in.CategoryID,
		&in.CreatedAt, &in.UpdatedAt,
		&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	in.Category = &c
	return &in, nil
}

func CreateIncome(ctx context.Context, pool *pgxpool.Pool, income *models.Income) (*models.Income, error) {
	var id int64
	insert := `
		INSERT INTO incomes (user_id, amount, date, source, description, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := pool.QueryRow(ctx, insert,
		income.UserID, income.Amount, income.Date, income.Source, income.Description, income.CategoryID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert income: %w", err)
	}
	return GetIncomeByID(ctx, pool, income.UserID, id)
}

func GetIncomeByID(ctx context.Context, pool *pgxpool.Pool, userID, incomeID int64) (*models.Income, error) {
	query := `
		SELECT ` + incomeColumns + `
		FROM incomes i
		JOIN categories c ON c.id = i.category_id
		WHERE i.id = $1 AND i.user_id = $2
	`
	in, err := scanIncome(pool.QueryRow(ctx, query, incomeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query income: %w", err)
	}
	return in, nil
}

func ListIncomes(ctx context.Context, pool *pgxpool.Pool, userID int64, filter IncomeFilter) ([]models.Income, int, error) {
	where := `i.user_id = $1`
	args := []interface{}{userID}

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND i.category_id = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND i.date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND i.date <= $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (i.description ILIKE $%d OR i.source ILIKE $%d)", len(args), len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM incomes i WHERE ` + where
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count incomes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := `
		SELECT ` + incomeColumns + `
		FROM incomes i
		JOIN categories c ON c.id = i.category_id
		WHERE ` + where + `
		ORDER BY i.date DESC, i.id DESC
		LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query incomes: %w", err)
	}
	defer rows.Close()

	var incomes []models.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, 0, err
		}
		incomes = append(incomes, *in)
	}
	return incomes, total, rows.Err()
}

func UpdateIncome(ctx context.Context, pool *pgxpool.Pool, userID, incomeID int64, upd IncomeUpdate) (*models.Income, error) {
	existing, err := GetIncomeByID(ctx, pool, userID, incomeID)
	if err != nil {
		return nil, err
	}

	if upd.Amount != nil {
		existing.Amount = *upd.Amount
	}
	if upd.Date != nil {
		existing.Date = *upd.Date
	}
	if upd.Source != nil {
		existing.Source = *upd.Source
	}
	if upd.Description != nil {
		existing.Description = *upd.Description
	}
	if upd.CategoryID != nil {
		existing.CategoryID = *upd.CategoryID
	}

	query := `
		UPDATE incomes
		SET amount = $1, date = $2, source = $3, description = $4, category_id = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
	`
	if _, err := pool.Exec(ctx, query,
		existing.Amount, existing.Date, existing.Source, existing.Description, existing.CategoryID,
		incomeID, userID,
	); err != nil {
		return nil, fmt.Errorf("update income: %w", err)
	}

	return GetIncomeByID(ctx, pool, userID, incomeID)
}

func DeleteIncome(ctx context.Context, pool *pgxpool.Pool, userID, incomeID int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM incomes WHERE id = $1 AND user_id = $2`, incomeID, userID)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
