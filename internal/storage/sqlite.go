package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/glossary/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS corpus (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		isizulu TEXT NOT NULL,
		english TEXT NOT NULL,
		isixhosa TEXT,
		siswati TEXT,
		context TEXT NOT NULL,
		page TEXT,
		file_path TEXT,
		source TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_corpus_isizulu ON corpus(isizulu);
	CREATE INDEX IF NOT EXISTS idx_corpus_source ON corpus(source);

	CREATE TABLE IF NOT EXISTS imports (
		path TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL,
		entries INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token_hash TEXT PRIMARY KEY,
		username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`
	_, err := db.Exec(schema)
	return err
}

const entryColumns = `id, isizulu, english, isixhosa, siswati, context, page, file_path, source`

const insertEntry = `INSERT INTO corpus (isizulu, english, isixhosa, siswati, context, page, file_path, source)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, e *models.Entry) error {
	res, err := db.ExecContext(ctx, insertEntry,
		models.Text(e.IsiZulu), models.Text(e.English), nullable(e.IsiXhosa), nullable(e.SiSwati),
		models.Text(e.Context), nullable(e.Page), nullable(e.FilePath), e.Source,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// CreateEntry inserts an entry and sets its ID.
func (s *SQLiteStorage) CreateEntry(ctx context.Context, entry *models.Entry) error {
	return insert(ctx, s.db, entry)
}

// BatchCreateEntries inserts multiple entries in a transaction.
func (s *SQLiteStorage) BatchCreateEntries(ctx context.Context, entries []*models.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := insert(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetEntry returns an entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM corpus WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return e, err
}

// SearchEntries matches query as a substring of any language column, ignoring case.
func (s *SQLiteStorage) SearchEntries(ctx context.Context, query string) ([]*models.Entry, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM corpus
		 WHERE lower(isizulu) LIKE ?1 ESCAPE '\'
		    OR lower(english) LIKE ?1 ESCAPE '\'
		    OR lower(isixhosa) LIKE ?1 ESCAPE '\'
		    OR lower(siswati) LIKE ?1 ESCAPE '\'
		 ORDER BY id`,
		pattern,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListEntries returns entries with offset and limit, ordered by id.
func (s *SQLiteStorage) ListEntries(ctx context.Context, offset, limit int) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM corpus ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// CountEntries returns the total number of entries.
func (s *SQLiteStorage) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus`).Scan(&count)
	return count, err
}

// DeleteEntriesBySource removes the entries imported from source.
func (s *SQLiteStorage) DeleteEntriesBySource(ctx context.Context, source string) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM corpus WHERE source = ? ORDER BY id`, source)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM corpus WHERE source = ?`, source); err != nil {
		return nil, err
	}
	return ids, tx.Commit()
}

// GetImport returns the import record for path.
func (s *SQLiteStorage) GetImport(ctx context.Context, path string) (*models.ImportRecord, error) {
	rec := &models.ImportRecord{Path: path}
	err := s.db.QueryRowContext(ctx,
		`SELECT mtime, size, entries FROM imports WHERE path = ?`, path,
	).Scan(&rec.ModTime, &rec.Size, &rec.Entries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: import %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PutImport inserts or replaces the import record for rec.Path.
func (s *SQLiteStorage) PutImport(ctx context.Context, rec *models.ImportRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (path, mtime, size, entries) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, size = excluded.size, entries = excluded.entries`,
		rec.Path, rec.ModTime, rec.Size, rec.Entries,
	)
	return err
}

// DeleteImport forgets the import record for path.
func (s *SQLiteStorage) DeleteImport(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM imports WHERE path = ?`, path)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		e                      models.Entry
		zu, en, ctxText        string
		xh, ss, page, filePath sql.NullString
	)
	if err := row.Scan(&e.ID, &zu, &en, &xh, &ss, &ctxText, &page, &filePath, &e.Source); err != nil {
		return nil, err
	}
	e.IsiZulu = &zu
	e.English = &en
	e.Context = &ctxText
	e.IsiXhosa = fromNull(xh)
	e.SiSwati = fromNull(ss)
	e.Page = fromNull(page)
	e.FilePath = fromNull(filePath)
	return &e, nil
}

func collect(rows *sql.Rows) ([]*models.Entry, error) {
	defer rows.Close()
	var entries []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNull(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
