package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spendly/internal/models"

	"github.com/google/uuid"
)

const categoryColumns = "id, user_id, name, color, text_color, description"

// CreateCategory inserts a new category. An empty ID is filled with a fresh UUID
// and an empty color with the default one.
func (db *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.UserID, c.Name, c.Color, c.TextColor, c.Description,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// ListCategories returns all categories owned by userID in insertion order.
func (db *DB) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? ORDER BY rowid",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// GetCategory returns the category with id if it is owned by userID.
func (db *DB) GetCategory(ctx context.Context, id, userID string) (*models.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ? AND user_id = ?",
		id, userID,
	)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// UpdateCategory applies patch to the category with id owned by userID.
func (db *DB) UpdateCategory(ctx context.Context, id, userID string, patch models.CategoryPatch) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE categories SET
			name = COALESCE(?, name),
			color = COALESCE(?, color),
			text_color = COALESCE(?, text_color),
			description = COALESCE(?, description)
		WHERE id = ? AND user_id = ?`,
		patch.Name, patch.Color, patch.TextColor, patch.Description, id, userID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res)
}

// DeleteCategory removes the category with id owned by userID. The delete only
// happens when no expense references the category; otherwise
// ErrCategoryHasExpenses is returned and nothing changes.
func (db *DB) DeleteCategory(ctx context.Context, id, userID string) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM categories
		WHERE id = ? AND user_id = ?
		  AND NOT EXISTS (SELECT 1 FROM expenses WHERE category_id = ?)`,
		id, userID, id,
	)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireAffected(res); !errors.Is(err, ErrNotFound) {
		return err
	}

	// Nothing was deleted: tell a missing category apart from a referenced one.
	var owned bool
	err = db.conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM categories WHERE id = ? AND user_id = ?)",
		id, userID,
	).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if owned {
		return ErrCategoryHasExpenses
	}
	return ErrNotFound
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*models.Category, error) {
	var c models.Category
	var textColor, description sql.NullString
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &textColor, &description); err != nil {
		return nil, err
	}
	c.TextColor = nullString(textColor)
	c.Description = nullString(description)
	return &c, nil
}
