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

// ExpenseFilter narrows ListExpenses. Zero values mean "no filter".
type ExpenseFilter struct {
	CategoryID string
	Payee      string
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
	Page       int
	Limit      int
}

// ExpenseUpdate holds a partial update; nil fields are left unchanged.
// LabelIDs nil means "keep", empty means "remove all". SetReceipt gates the
// receipt pair so a PATCH can explicitly null it out.
type ExpenseUpdate struct {
	Amount          *float64
	Date            *time.Time
	Payee           *string
	Description     *string
	CategoryID      *string
	LabelIDs        []int64
	SetReceipt      bool
	ReceiptURL      *string
	ReceiptPublicID *string
}

const expenseColumns = `
	e.id, e.user_id, e.amount, e.date, e.payee, e.description, e.category_id,
	e.receipt_url, e.receipt_public_id, e.created_at, e.updated_at,
	c.id, c.name, c.type, c.icon, c.color, c.is_default, c.created_at, c.updated_at
`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var e models.Expense
	var c models.Category
	err := row.Scan(
		&e.ID, &e.UserID, &e.Amount, &e.Date, &e.Payee, &e.Description, &e.CategoryID,
		&e.ReceiptURL, &e.ReceiptPublicID, &e.CreatedAt, &e.UpdatedAt,
		&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Category = &c
	e.Labels = []models.Label{}
	return &e, nil
}

func loadExpenseLabels(ctx context.Context, pool *pgxpool.Pool, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(expenses))
	byID := make(map[int64]*models.Expense, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	query := `
		SELECT el.expense_id, l.id, l.name, l.color, l.created_at, l.updated_at
		FROM expense_labels el
		JOIN labels l ON l.id = el.label_id
		WHERE el.expense_id = ANY($1)
		ORDER BY l.name ASC
	`
	rows, err := pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query expense labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID int64
		var l models.Label
		if err := rows.Scan(&expenseID, &l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return err
		}
		if e, ok := byID[expenseID]; ok {
			e.Labels = append(e.Labels, l)
		}
	}
	return rows.Err()
}

func CreateExpense(ctx context.Context, pool *pgxpool.Pool, expense *models.Expense, labelIDs []int64) (*models.Expense, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	insert := `
		INSERT INTO expenses (user_id, amount, date, payee, description, category_id, receipt_url, receipt_public_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = tx.QueryRow(ctx, insert,
		expense.UserID, expense.Amount, expense.Date, expense.Payee, expense.Description,
		expense.CategoryID, expense.ReceiptURL, expense.ReceiptPublicID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	for _, labelID := range labelIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO expense_labels (expense_id, label_id) VALUES ($1, $2)`, id, labelID); err != nil {
			return nil, fmt.Errorf("insert expense label: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return GetExpenseByID(ctx, pool, expense.UserID, id)
}

func GetExpenseByID(ctx context.Context, pool *pgxpool.Pool, userID, expenseID int64) (*models.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.id = $1 AND e.user_id = $2
	`
	e, err := scanExpense(pool.QueryRow(ctx, query, expenseID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query expense: %w", err)
	}
	if err := loadExpenseLabels(ctx, pool, []*models.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpenses returns one page of a user's expenses, newest first, plus the
// total row count for the pagination envelope.
func ListExpenses(ctx context.Context, pool *pgxpool.Pool, userID int64, filter ExpenseFilter) ([]models.Expense, int, error) {
	where := `e.user_id = $1`
	args := []interface{}{userID}

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND e.category_id = $%d", len(args))
	}
	if filter.Payee != "" && filter.Payee != "all" {
		args = append(args, filter.Payee)
		where += fmt.Sprintf(" AND e.payee = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND e.date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND e.date <= $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (e.description ILIKE $%d OR e.payee ILIKE $%d)", len(args), len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM expenses e WHERE ` + where
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE ` + where + `
		ORDER BY e.date DESC, e.id DESC
		LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := loadExpenseLabels(ctx, pool, expenses); err != nil {
		return nil, 0, err
	}

	out := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = *e
	}
	return out, total, nil
}

// UpdateExpense applies a partial update after verifying ownership. When the
// receipt pair changes, the previously stored public id is returned so the
// caller can release the old file.
func UpdateExpense(ctx context.Context, pool *pgxpool.Pool, userID, expenseID int64, upd ExpenseUpdate) (*models.Expense, *string, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	existing := struct {
		amount          float64
		date            time.Time
		payee           string
		description     string
		categoryID      string
		receiptURL      *string
		receiptPublicID *string
	}{}
	selectQuery := `
		SELECT amount, date, payee, description, category_id, receipt_url, receipt_public_id
		FROM expenses WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, selectQuery, expenseID, userID).Scan(
		&existing.amount, &existing.date, &existing.payee, &existing.description,
		&existing.categoryID, &existing.receiptURL, &existing.receiptPublicID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("query expense: %w", err)
	}

	if upd.Amount != nil {
		existing.amount = *upd.Amount
	}
	if upd.Date != nil {
		existing.date = *upd.Date
	}
	if upd.Payee != nil {
		existing.payee = *upd.Payee
	}
	if upd.Description != nil {
		existing.description = *upd.Description
	}
	if upd.CategoryID != nil {
		existing.categoryID = *upd.CategoryID
	}

	var releasedPublicID *string
	if upd.SetReceipt {
		sameReceipt := existing.receiptPublicID != nil && upd.ReceiptPublicID != nil &&
			*existing.receiptPublicID == *upd.ReceiptPublicID
		if existing.receiptPublicID != nil && !sameReceipt {
			releasedPublicID = existing.receiptPublicID
		}
		existing.receiptURL = upd.ReceiptURL
		existing.receiptPublicID = upd.ReceiptPublicID
	}

	updateQuery := `
		UPDATE expenses
		SET amount = $1, date = $2, payee = $3, description = $4, category_id = $5,
			receipt_url = $6, receipt_public_id = $7, updated_at = NOW()
		WHERE id = $8 AND user_id = $9
	`
	_, err = tx.Exec(ctx, updateQuery,
		existing.amount, existing.date, existing.payee, existing.description,
		existing.categoryID, existing.receiptURL, existing.receiptPublicID,
		expenseID, userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update expense: %w", err)
	}

	if upd.LabelIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM expense_labels WHERE expense_id = $1`, expenseID); err != nil {
			return nil, nil, fmt.Errorf("clear expense labels: %w", err)
		}
		for _, labelID := range upd.LabelIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO expense_labels (expense_id, label_id) VALUES ($1, $2)`, expenseID, labelID); err != nil {
				return nil, nil, fmt.Errorf("insert expense label: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	updated, err := GetExpenseByID(ctx, pool, userID, expenseID)
	if err != nil {
		return nil, nil, err
	}
	return updated, releasedPublicID, nil
}

// DeleteExpense removes the expense (label associations cascade) and returns
// the receipt public id, if any, for best-effort external release.
func DeleteExpense(ctx context.Context, pool *pgxpool.Pool, userID, expenseID int64) (*string, error) {
	var receiptPublicID *string
	query := `
		DELETE FROM expenses
		WHERE id = $1 AND user_id = $2
		RETURNING receipt_public_id
	`
	err := pool.QueryRow(ctx, query, expenseID, userID).Scan(&receiptPublicID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete expense: %w", err)
	}
	return receiptPublicID, nil
}
