// Package storage defines the persistence interface for glossary entries.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/glossary/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Storage defines corpus entry persistence operations.
type Storage interface {
	CreateEntry(ctx context.Context, entry *models.Entry) error
	BatchCreateEntries(ctx context.Context, entries []*models.Entry) error
	GetEntry(ctx context.Context, id int64) (*models.Entry, error)
	// SearchEntries returns entries whose language fields contain query
	// (case-insensitive), ordered by id.
	SearchEntries(ctx context.Context, query string) ([]*models.Entry, error)
	ListEntries(ctx context.Context, offset, limit int) ([]*models.Entry, error)
	CountEntries(ctx context.Context) (int64, error)
	// DeleteEntriesBySource removes every entry imported from source and returns their ids.
	DeleteEntriesBySource(ctx context.Context, source string) ([]int64, error)

	GetImport(ctx context.Context, path string) (*models.ImportRecord, error)
	PutImport(ctx context.Context, rec *models.ImportRecord) error
	DeleteImport(ctx context.Context, path string) error

	// CreateUser inserts user and sets its ID; a taken username is ErrAlreadyExists.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	// DeleteExpiredSessions removes sessions that expired at or before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	Close() error
}
