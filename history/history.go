package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one stored transcription.
type Entry struct {
	ID        int64
	Text      string
	Duration  float64 // seconds of audio
	Language  string
	CreatedAt time.Time
}

// Options bound how much history is kept. Both limits are enforced
// together inside Add.
type Options struct {
	Path          string
	MaxItems      int
	RetentionDays int
}

// Store keeps finished transcriptions in a local SQLite database. All
// methods are safe for concurrent use; writes are serialized so Add's
// insert-then-prune stays atomic relative to other writers in this
// process.
type Store struct {
	db    *sql.DB
	opts  Options
	clock func() time.Time

	mu sync.Mutex
}

// Open creates or opens the database at opts.Path, creating parent
// directories as needed.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.MaxItems <= 0 {
		return nil, fmt.Errorf("history: max items must be positive, got %d", opts.MaxItems)
	}
	if opts.RetentionDays <= 0 {
		return nil, fmt.Errorf("history: retention days must be positive, got %d", opts.RetentionDays)
	}

	dir := filepath.Dir(opts.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", opts.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, opts: opts, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcriptions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text TEXT NOT NULL,
    duration REAL NOT NULL DEFAULT 0,
    language TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created ON transcriptions(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a transcription and prunes entries that fall outside the
// retention window or push the store past MaxItems, all in one
// transaction. Returns the new entry's id. Empty text is rejected.
func (s *Store) Add(ctx context.Context, text string, duration float64, language string) (int64, error) {
	if text == "" {
		return 0, fmt.Errorf("history: refusing to store empty text")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transcriptions (text, duration, language, created_at) VALUES (?, ?, ?, ?)`,
		text, duration, language, now)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := s.prune(ctx, tx, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Cleanup prunes entries outside the retention window, then trims the
// store down to MaxItems newest entries. Add runs the same pruning after
// every insert; Cleanup lets a long-idle store shed stale entries
// without one.
func (s *Store) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.prune(ctx, tx, s.clock().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// prune runs inside the caller's transaction. Age eviction first, then
// count eviction keeping the newest MaxItems; created_at ties keep the
// higher id.
func (s *Store) prune(ctx context.Context, tx *sql.Tx, now time.Time) error {
	cutoff := now.AddDate(0, 0, -s.opts.RetentionDays)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transcriptions WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("prune by age: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM transcriptions WHERE id NOT IN (
    SELECT id FROM transcriptions ORDER BY created_at DESC, id DESC LIMIT ?
)`, s.opts.MaxItems); err != nil {
		return fmt.Errorf("prune by count: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, text, duration, language, created_at FROM transcriptions
ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns entries whose text contains query, newest first.
// Matching is case-insensitive for ASCII, SQLite LIKE semantics.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
SELECT id, text, duration, language, created_at FROM transcriptions
WHERE text LIKE ? ESCAPE '\'
ORDER BY created_at DESC, id DESC LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query search: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Get returns the entry with the given id, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, `
SELECT id, text, duration, language, created_at FROM transcriptions WHERE id = ?`, id).
		Scan(&e.ID, &e.Text, &e.Duration, &e.Language, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Delete removes one entry. Reports whether it existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes all entries. The id sequence keeps counting, so ids are
// never reused even across a clear.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transcriptions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Text, &e.Duration, &e.Language, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func escapeLike(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
