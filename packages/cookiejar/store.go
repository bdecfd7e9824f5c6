package cookiejar

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS cookies (
	name      TEXT NOT NULL,
	value     TEXT NOT NULL,
	domain    TEXT NOT NULL DEFAULT '',
	path      TEXT NOT NULL DEFAULT '',
	expires   INTEGER NOT NULL DEFAULT 0,
	secure    INTEGER NOT NULL DEFAULT 0,
	http_only INTEGER NOT NULL DEFAULT 0,
	position  INTEGER NOT NULL,
	PRIMARY KEY (name, domain, path)
)`

// Store persists jars in a SQLite database
type Store struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// Open opens or creates the cookie database at path.
// Accepts a plain file path or a sqlite:// / sqlite: connection string.
func Open(path string) (*Store, error) {
	dsn := parseConnectionString(path)
	if dsn == "" {
		return nil, fmt.Errorf("cookiejar: empty store path")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to cookie store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cookie table: %w", err)
	}

	return &Store{db: db, path: dsn, queryTimeout: 30 * time.Second}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load adds every persisted cookie to jar and returns how many were read.
// Cookies that expired since they were saved are skipped by the jar.
func (s *Store) Load(ctx context.Context, jar *Jar) (int, error) {
	if jar == nil {
		return 0, ErrNilJar
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, domain, path, expires, secure, http_only FROM cookies ORDER BY position`)
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			c        http.Cookie
			expires  int64
			secure   bool
			httpOnly bool
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &secure, &httpOnly); err != nil {
			return n, fmt.Errorf("failed to scan row: %w", err)
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		c.Secure = secure
		c.HttpOnly = httpOnly
		jar.Add(&c)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("row iteration error: %w", err)
	}
	return n, nil
}

// Save replaces the persisted cookies with the contents of jar.
func (s *Store) Save(ctx context.Context, jar *Jar) error {
	if jar == nil {
		return ErrNilJar
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cookies (name, value, domain, path, expires, secure, http_only, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range jar.Cookies() {
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		if _, err := stmt.ExecContext(ctx, c.Name, c.Value, c.Domain, c.Path, expires, c.Secure, c.HttpOnly, i); err != nil {
			return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// Clear deletes every persisted cookie.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// parseConnectionString strips the sqlite:// and sqlite: prefixes
func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://")
	}
	return strings.TrimPrefix(connStr, "sqlite:")
}
