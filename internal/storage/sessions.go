package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"spendly/internal/models"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	User    *models.User
	Session models.Session
}

// CreateSession stores a session for a user. id is the hashed cookie token.
func (db *DB) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		id, userID, expiresAt.UTC(), now(),
	)
	return err
}

// ValidateSession checks if a session is valid and returns the associated user.
func (db *DB) ValidateSession(ctx context.Context, id string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session is valid and returns session details.
// Expired sessions are reported as ErrNotFound.
func (db *DB) ValidateSessionWithInfo(ctx context.Context, id string) (*SessionInfo, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.age, u.created_at,
		       s.id, s.user_id, s.expires_at, s.last_activity
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.id = ? AND s.expires_at > ?
	`, id, now())

	var u models.User
	var s models.Session
	var age sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &age, &u.CreatedAt,
		&s.ID, &s.UserID, &s.ExpiresAt, &s.LastActivity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	return &SessionInfo{User: &u, Session: s}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, id string, newExpiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE id = ?",
		now(), newExpiresAt.UTC(), id,
	)
	return err
}

// DeleteSession removes a session.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// CleanExpiredSessions removes all expired sessions and returns how many were removed.
func (db *DB) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
