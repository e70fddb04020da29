package models

import "time"

// Expense represents a single spending record owned by one user.
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	AmountCents int64     `json:"amountCents"`
	CategoryID  *string   `json:"categoryId"`
}

// ExpensePatch describes a partial expense update. Nil fields are left untouched.
// The category is only changed when SetCategory is true; a nil CategoryID then
// clears it.
type ExpensePatch struct {
	Name        *string
	AmountCents *int64
	Date        *time.Time
	SetCategory bool
	CategoryID  *string
}

// Category groups expenses for a user.
type Category struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	TextColor   *string `json:"textColor"`
	Description *string `json:"description"`
}

// TextColorOrDefault returns the text color, or DefaultCategoryTextColor when
// none is set.
func (c Category) TextColorOrDefault() string {
	if c.TextColor == nil || *c.TextColor == "" {
		return DefaultCategoryTextColor
	}
	return *c.TextColor
}

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#94a3b8"

// DefaultCategoryTextColor is shown for categories without a text color.
const DefaultCategoryTextColor = "#0f172a"

// CategoryPatch describes a partial category update. Nil fields are left untouched.
type CategoryPatch struct {
	Name        *string
	Color       *string
	TextColor   *string
	Description *string
}

// User represents a user account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Age          *int      `json:"age,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents a user session. ID is the hash of the cookie token, never
// the token itself.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExpiresAt    time.Time `json:"expiresAt"`
	LastActivity time.Time `json:"lastActivity"`
}
