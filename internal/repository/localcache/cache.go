package localcache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/calfai/herd/internal/domain/models"
)

// maxEntries caps the cache at the 50 most recent outcomes; older entries are
// dropped on every write.
const maxEntries = 50

// Entry is one cached prediction outcome, the fallback data source when the
// live document store is unreachable.
type Entry struct {
	AnimalID    string           `json:"animalId"`
	YieldLiters float64          `json:"yieldLiters"`
	Condition   string           `json:"condition"`
	Risk        models.RiskLevel `json:"risk"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Cache is a sqlite-backed append-only outcome log, newest first.
type Cache struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	animal_id  TEXT NOT NULL,
	yield      REAL NOT NULL,
	condition  TEXT NOT NULL,
	risk       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

// Open creates or opens the cache file and ensures the schema exists.
func Open(path string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open outcome cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init outcome cache schema: %w", err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Prepend stores one outcome and truncates the log to the newest 50 entries.
func (c *Cache) Prepend(ctx context.Context, entry Entry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outcomes (animal_id, yield, condition, risk, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.AnimalID, entry.YieldLiters, entry.Condition, string(entry.Risk), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM outcomes WHERE id NOT IN (SELECT id FROM outcomes ORDER BY id DESC LIMIT ?)`,
		maxEntries)
	if err != nil {
		return fmt.Errorf("truncate cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache write: %w", err)
	}
	return nil
}

// List returns the cached outcomes, newest first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT animal_id, yield, condition, risk, created_at FROM outcomes ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var risk string
		if err := rows.Scan(&e.AnimalID, &e.YieldLiters, &e.Condition, &risk, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		e.Risk = models.RiskLevel(risk)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}

	return entries, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
