package db

import (
	"context"
	"errors"
	"fmt"

	"expensehub-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateLabel(ctx context.Context, pool *pgxpool.Pool, name, color string) (*models.Label, error) {
	query := `
		INSERT INTO labels (name, color)
		VALUES ($1, $2)
		RETURNING id, name, color, created_at, updated_at
	`
	var l models.Label
	err := pool.QueryRow(ctx, query, name, color).
		Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create label: %w", err)
	}
	return &l, nil
}

func GetAllLabels(ctx context.Context, pool *pgxpool.Pool) ([]models.Label, error) {
	query := `
		SELECT id, name, color, created_at, updated_at
		FROM labels
		ORDER BY name ASC
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func UpdateLabel(ctx context.Context, pool *pgxpool.Pool, id int64, name, color string) (*models.Label, error) {
	query := `
		UPDATE labels
		SET name = $1, color = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, color, created_at, updated_at
	`
	var l models.Label
	err := pool.QueryRow(ctx, query, name, color, id).
		Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update label: %w", err)
	}
	return &l, nil
}

// DeleteLabel removes the label and, through ON DELETE CASCADE, its expense
// associations. The expenses themselves are untouched.
func DeleteLabel(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete label: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LabelsExist reports whether every id in labelIDs references a stored label.
func LabelsExist(ctx context.Context, pool *pgxpool.Pool, labelIDs []int64) (bool, error) {
	if len(labelIDs) == 0 {
		return true, nil
	}
	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM labels WHERE id = ANY($1)`, labelIDs).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count labels: %w", err)
	}
	return count == len(labelIDs), nil
}
