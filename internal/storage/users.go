package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/glossary/internal/models"
)

// CreateUser inserts user and sets its ID.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.CreatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: user %s", ErrAlreadyExists, user.Username)
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUser returns the user with the given username.
func (s *SQLiteStorage) GetUser(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

// CreateSession stores a session.
func (s *SQLiteStorage) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, username, expires_at) VALUES (?, ?, ?)`,
		session.TokenHash, session.Username, session.ExpiresAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: session", ErrAlreadyExists)
	}
	return err
}

// GetSession returns the session stored under tokenHash.
func (s *SQLiteStorage) GetSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	sess := &models.Session{TokenHash: tokenHash}
	var expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT username, expires_at FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&sess.Username, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = time.Unix(expires, 0)
	return sess, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (s *SQLiteStorage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
