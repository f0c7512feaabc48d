package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"expensehub-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var slugPattern = regexp.MustCompile(`\s+`)

// CategorySlug derives the stable id used for a category, matching the seed
// data ("Software/Subscriptions" -> "software-subscriptions").
func CategorySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, "/", "-")
	return slugPattern.ReplaceAllString(slug, "-")
}

func CreateCategory(ctx context.Context, pool *pgxpool.Pool, category *models.Category) (*models.Category, error) {
	query := `
		INSERT INTO categories (id, name, type, icon, color, is_default)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, name, type, icon, color, is_default, created_at, updated_at
	`
	var c models.Category
	err := pool.QueryRow(ctx, query, CategorySlug(category.Name), category.Name, category.Type, category.Icon, category.Color).
		Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func GetCategoryByID(ctx context.Context, pool *pgxpool.Pool, id string) (*models.Category, error) {
	query := `
		SELECT id, name, type, icon, color, is_default, created_at, updated_at
		FROM categories WHERE id = $1
	`
	var c models.Category
	err := pool.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

// GetAllCategories lists categories with their transaction reference counts,
// optionally filtered by type.
func GetAllCategories(ctx context.Context, pool *pgxpool.Pool, categoryType string) ([]models.CategoryWithCount, error) {
	query := `
		SELECT c.id, c.name, c.type, c.icon, c.color, c.is_default, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM expenses e WHERE e.category_id = c.id) +
			(SELECT COUNT(*) FROM incomes i WHERE i.category_id = c.id)
		FROM categories c
		WHERE ($1 = '' OR c.type = $1)
		ORDER BY c.name ASC
	`
	rows, err := pool.Query(ctx, query, categoryType)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.CategoryWithCount
	for rows.Next() {
		var c models.CategoryWithCount
		err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt, &c.TransactionCount)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory changes display metadata only: the type is fixed at creation
// because changing it would orphan type-scoped aggregations.
func UpdateCategory(ctx context.Context, pool *pgxpool.Pool, id, name, icon, color string) (*models.Category, error) {
	query := `
		UPDATE categories
		SET name = $1, icon = $2, color = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, name, type, icon, color, is_default, created_at, updated_at
	`
	var c models.Category
	err := pool.QueryRow(ctx, query, name, icon, color, id).
		Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &c, nil
}

// DeleteCategory refuses to delete a category that any expense, income or
// budget still references.
func DeleteCategory(ctx context.Context, pool *pgxpool.Pool, id string) error {
	var refs int
	countQuery := `
		SELECT (SELECT COUNT(*) FROM expenses WHERE category_id = $1) +
			(SELECT COUNT(*) FROM incomes WHERE category_id = $1) +
			(SELECT COUNT(*) FROM budgets WHERE category_id = $1)
	`
	if err := pool.QueryRow(ctx, countQuery, id).Scan(&refs); err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return ErrConflict
	}

	cmd, err := pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
