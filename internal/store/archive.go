package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentstation/utc"
	_ "modernc.org/sqlite"

	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/logging"
	"github.com/agentstation/custody/pkg/observation"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id_hash    TEXT PRIMARY KEY,
	source     TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_source ON observations(source);
`

// Entry describes one archived observation.
type Entry struct {
	IDHash    string   `json:"id_hash" yaml:"id_hash"`
	Source    string   `json:"source" yaml:"source"`
	CreatedAt utc.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt utc.Time `json:"updated_at" yaml:"updated_at"`
}

// PutResult counts what a Put did.
type PutResult struct {
	Stored  int
	Skipped int
}

// Archive is a sqlite store of normalized observations keyed by identity hash.
// A later write of the same identity replaces the earlier one.
type Archive struct {
	db     *sql.DB
	path   string
	hasher identity.Hasher
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*Archive)

// WithArchiveHasher sets the hasher used for observations that carry no
// stored identity hash.
func WithArchiveHasher(h identity.Hasher) ArchiveOption {
	return func(a *Archive) {
		a.hasher = h
	}
}

// OpenArchive opens (creating if needed) the archive at path.
// ":memory:" opens a private in-memory database.
func OpenArchive(ctx context.Context, path string, opts ...ArchiveOption) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "archive", path, err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, errors.WrapResource("open", "archive", path, fmt.Errorf("%s: %w", p, err))
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.WrapResource("open", "archive", path, fmt.Errorf("failed to create schema: %w", err))
	}

	a := &Archive{db: db, path: path, hasher: identity.NewSHA256()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Path returns the database path.
func (a *Archive) Path() string { return a.path }

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Put upserts every observation with a known identity. Observations without
// one are skipped and logged.
func (a *Archive) Put(ctx context.Context, batch observation.Batch) (PutResult, error) {
	logger := logging.FromContext(ctx)
	var res PutResult

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return res, errors.WrapResource("save", "archive", a.path, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (id_hash, source, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id_hash) DO UPDATE SET
			source = excluded.source,
			body = excluded.body,
			updated_at = excluded.updated_at`)
	if err != nil {
		return res, errors.WrapResource("save", "archive", a.path, err)
	}
	defer stmt.Close()

	now := utc.Now().Time.Format(time.RFC3339Nano)
	for i, obs := range batch {
		id, err := identity.ObservationHash(a.hasher, obs)
		if err != nil {
			return res, errors.WrapResource("save", "observation", fmt.Sprintf("#%d", i), err)
		}
		if id == "" {
			logger.Warn().Int("index", i).Msg("Skipping observation without identity")
			res.Skipped++
			continue
		}
		body, err := json.Marshal(obs)
		if err != nil {
			return res, errors.WrapResource("save", "observation", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(obs.Source()), string(body), now, now); err != nil {
			return res, errors.WrapResource("save", "observation", id, err)
		}
		res.Stored++
	}

	if err := tx.Commit(); err != nil {
		return res, errors.WrapResource("save", "archive", a.path, err)
	}
	logger.Debug().Int("stored", res.Stored).Int("skipped", res.Skipped).Msg("Archived batch")
	return res, nil
}

// Get returns the archived observation with the given identity hash.
func (a *Archive) Get(ctx context.Context, idHash string) (observation.Observation, error) {
	var body string
	err := a.db.QueryRowContext(ctx, `SELECT body FROM observations WHERE id_hash = ?`, idHash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("observation", idHash)
	}
	if err != nil {
		return nil, errors.WrapResource("load", "observation", idHash, err)
	}

	var obs observation.Observation
	if err := json.Unmarshal([]byte(body), &obs); err != nil {
		return nil, errors.WrapResource("load", "observation", idHash, err)
	}
	return obs, nil
}

// List returns archived entries, optionally filtered by source, newest first.
// A limit of zero or less means no limit.
func (a *Archive) List(ctx context.Context, source string, limit int) ([]Entry, error) {
	query := `SELECT id_hash, source, created_at, updated_at FROM observations`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY updated_at DESC, id_hash`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapResource("query", "archive", a.path, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, updated string
		if err := rows.Scan(&e.IDHash, &e.Source, &created, &updated); err != nil {
			return nil, errors.WrapResource("query", "archive", a.path, err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, errors.WrapResource("query", "archive", e.IDHash, err)
		}
		if e.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, errors.WrapResource("query", "archive", e.IDHash, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("query", "archive", a.path, err)
	}
	return entries, nil
}

// Export returns every archived observation with the given source (all when
// source is empty), newest first.
func (a *Archive) Export(ctx context.Context, source string) (observation.Batch, error) {
	entries, err := a.List(ctx, source, 0)
	if err != nil {
		return nil, err
	}
	batch := make(observation.Batch, 0, len(entries))
	for _, e := range entries {
		obs, err := a.Get(ctx, e.IDHash)
		if err != nil {
			return nil, err
		}
		batch = append(batch, obs)
	}
	return batch, nil
}

// Count returns the number of archived observations.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, errors.WrapResource("query", "archive", a.path, err)
	}
	return n, nil
}

func parseTime(s string) (utc.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return utc.Time{}, err
	}
	return utc.Time{Time: t}, nil
}
