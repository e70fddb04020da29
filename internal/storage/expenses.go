package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spendly/internal/models"

	"github.com/google/uuid"
)

const expenseColumns = "id, user_id, name, date, amount_cents, category_id"

// insertExpense only writes the row when the referenced category, if any, is
// owned by the same user.
const insertExpense = `
	INSERT INTO expenses (` + expenseColumns + `)
	SELECT ?, ?, ?, ?, ?, ?
	WHERE ? IS NULL OR EXISTS (SELECT 1 FROM categories WHERE id = ? AND user_id = ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateExpense inserts a new expense. An empty ID gets a fresh UUID and a zero
// date is replaced by the current time.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	return createExpense(ctx, db.conn, e)
}

// CreateExpenses inserts all expenses in one transaction. Either every row is
// written or none is. An empty batch is a no-op.
func (db *DB) CreateExpenses(ctx context.Context, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for i := range expenses {
		if err := createExpense(ctx, tx, &expenses[i]); err != nil {
			return fmt.Errorf("expense %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func createExpense(ctx context.Context, ex execer, e *models.Expense) error {
	if !models.ValidCents(e.AmountCents) {
		return models.ErrInvalidAmount
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = now()
	}
	e.Date = e.Date.UTC()

	res, err := ex.ExecContext(ctx, insertExpense,
		e.ID, e.UserID, e.Name, e.Date, e.AmountCents, e.CategoryID,
		e.CategoryID, e.CategoryID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	if err := requireAffected(res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// GetExpense returns the expense with id if it is owned by userID.
func (db *DB) GetExpense(ctx context.Context, id, userID string) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?",
		id, userID,
	)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListExpenses returns all expenses owned by userID, newest first.
func (db *DB) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	return db.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, rowid DESC",
		userID,
	)
}

// ListExpensesByCategory returns the expenses of userID in categoryID, newest first.
func (db *DB) ListExpensesByCategory(ctx context.Context, userID, categoryID string) ([]models.Expense, error) {
	return db.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND category_id = ? ORDER BY date DESC, rowid DESC",
		userID, categoryID,
	)
}

// ListExpensesInRange returns the expenses of userID dated in [from, to), newest first.
func (db *DB) ListExpensesInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Expense, error) {
	return db.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date DESC, rowid DESC",
		userID, from.UTC(), to.UTC(),
	)
}

// UpdateExpense applies patch to the expense with id owned by userID. A new
// category must also be owned by userID, otherwise nothing is updated.
// Amounts are checked with models.ValidCents, as on insert.
func (db *DB) UpdateExpense(ctx context.Context, id, userID string, patch models.ExpensePatch) error {
	if patch.AmountCents != nil && !models.ValidCents(*patch.AmountCents) {
		return models.ErrInvalidAmount
	}
	var date any
	if patch.Date != nil {
		date = patch.Date.UTC()
	}
	var category *string
	if patch.SetCategory {
		category = patch.CategoryID
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE expenses SET
			name = COALESCE(?, name),
			amount_cents = COALESCE(?, amount_cents),
			date = COALESCE(?, date),
			category_id = CASE WHEN ? THEN ? ELSE category_id END
		WHERE id = ? AND user_id = ?
		  AND (? IS NULL OR EXISTS (SELECT 1 FROM categories WHERE id = ? AND user_id = ?))`,
		patch.Name, patch.AmountCents, date,
		patch.SetCategory, category,
		id, userID,
		category, category, userID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res)
}

// DeleteExpense removes the expense with id owned by userID.
func (db *DB) DeleteExpense(ctx context.Context, id, userID string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

// Summary returns total, average and median over all expenses of userID.
func (db *DB) Summary(ctx context.Context, userID string) (models.Summary, error) {
	amounts, err := db.queryAmounts(ctx, "SELECT amount_cents FROM expenses WHERE user_id = ?", userID)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(amounts), nil
}

// CategorySummary is Summary restricted to one category of userID.
func (db *DB) CategorySummary(ctx context.Context, userID, categoryID string) (models.Summary, error) {
	amounts, err := db.queryAmounts(ctx,
		"SELECT amount_cents FROM expenses WHERE user_id = ? AND category_id = ?",
		userID, categoryID,
	)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(amounts), nil
}

// MostFrequentCategories counts the expenses of userID per category, most used
// first. Uncategorized expenses form a group with a nil CategoryID.
func (db *DB) MostFrequentCategories(ctx context.Context, userID string) ([]models.CategoryCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category_id, COUNT(*) AS n
		FROM expenses
		WHERE user_id = ?
		GROUP BY category_id
		ORDER BY n DESC, category_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	result := []models.CategoryCount{}
	for rows.Next() {
		var id sql.NullString
		var c models.CategoryCount
		if err := rows.Scan(&id, &c.Count); err != nil {
			return nil, err
		}
		c.CategoryID = nullString(id)
		result = append(result, c)
	}
	return result, rows.Err()
}

// BiggestCategories sums the expenses of userID per category, largest first.
// Uncategorized expenses form a group with a nil CategoryID.
func (db *DB) BiggestCategories(ctx context.Context, userID string) ([]models.CategoryTotal, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category_id, SUM(amount_cents) AS total
		FROM expenses
		WHERE user_id = ?
		GROUP BY category_id
		ORDER BY total DESC, category_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	result := []models.CategoryTotal{}
	for rows.Next() {
		var id sql.NullString
		var c models.CategoryTotal
		if err := rows.Scan(&id, &c.AmountCents); err != nil {
			return nil, err
		}
		c.CategoryID = nullString(id)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (db *DB) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (db *DB) queryAmounts(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query amounts: %w", err)
	}
	defer rows.Close()

	var amounts []int64
	for rows.Next() {
		var a int64
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		amounts = append(amounts, a)
	}
	return amounts, rows.Err()
}

func scanExpense(s scanner) (*models.Expense, error) {
	var e models.Expense
	var category sql.NullString
	if err := s.Scan(&e.ID, &e.UserID, &e.Name, &e.Date, &e.AmountCents, &category); err != nil {
		return nil, err
	}
	e.CategoryID = nullString(category)
	return &e, nil
}
