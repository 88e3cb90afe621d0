package verify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/corroborate/internal/model"
)

// Store persists verdicts for retrieval by id
type Store interface {
	Save(ctx context.Context, v *model.Verdict) error
	Get(ctx context.Context, id string) (*model.Verdict, error)
	List(ctx context.Context, limit int) ([]*model.Verdict, error)
}

// MemoryStore keeps verdicts for the lifetime of the process
type MemoryStore struct {
	mu       sync.RWMutex
	verdicts map[string]*model.Verdict
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{verdicts: make(map[string]*model.Verdict)}
}

// Save stores a copy of v
func (s *MemoryStore) Save(_ context.Context, v *model.Verdict) error {
	cp := *v
	s.mu.Lock()
	s.verdicts[v.ID] = &cp
	s.mu.Unlock()
	return nil
}

// Get returns the verdict with id or ErrNotFound
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[id]
	if !ok {
		return nil, fmt.Errorf("verification %s: %w", id, model.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

// List returns the newest verdicts first; limit <= 0 returns all
func (s *MemoryStore) List(_ context.Context, limit int) ([]*model.Verdict, error) {
	s.mu.RLock()
	out := make([]*model.Verdict, 0, len(s.verdicts))
	for _, v := range s.verdicts {
		cp := *v
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SQLiteStore persists verdicts as JSON rows in SQLite.
// All methods are safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens or creates the verdict database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// Concurrent batch writers wait for the lock instead of failing with SQLITE_BUSY
	connStr := path + "?_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verdicts (
		id TEXT PRIMARY KEY,
		claim TEXT NOT NULL,
		status TEXT NOT NULL,
		confidence REAL NOT NULL,
		created_at DATETIME NOT NULL,
		body TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_created ON verdicts(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Save inserts or replaces a verdict
func (s *SQLiteStore) Save(ctx context.Context, v *model.Verdict) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verdicts (id, claim, status, confidence, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`, v.ID, v.Claim, string(v.Status), v.Confidence, v.CreatedAt.UTC().Format(time.RFC3339Nano), string(body))
	if err != nil {
		return fmt.Errorf("save verdict %s: %w", v.ID, err)
	}
	return nil
}

// Get loads the verdict with id or returns ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM verdicts WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("verification %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load verdict %s: %w", id, err)
	}
	return decodeVerdict(body)
}

// List returns the newest verdicts first; limit <= 0 returns all
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*model.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT body FROM verdicts ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verdicts: %w", err)
	}
	defer rows.Close()

	var out []*model.Verdict
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v, err := decodeVerdict(body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func decodeVerdict(body string) (*model.Verdict, error) {
	var v model.Verdict
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	return &v, nil
}
