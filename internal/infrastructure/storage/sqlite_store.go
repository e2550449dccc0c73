package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS posted_items (
	id        TEXT PRIMARY KEY,
	seq       INTEGER NOT NULL,
	posted_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS feed_state (
	feed_id         TEXT PRIMARY KEY,
	last_checked_at DATETIME NOT NULL,
	error_count     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_stats (
	id                 INTEGER PRIMARY KEY CHECK (id = 1),
	last_check         DATETIME,
	total_items_posted INTEGER NOT NULL DEFAULT 0,
	last_run_posted    INTEGER NOT NULL DEFAULT 0,
	last_run_time      DATETIME
);`

// SQLiteStore keeps the auto-publish delivery record in a SQLite database
// instead of tracking.json. Curated-mode state stays in JSON files because
// the review UI reads them directly.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.TrackingStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the database and bootstraps the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.StateError{Path: path, Err: fmt.Errorf("open db: %w", err)}
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &domain.StateError{Path: path, Err: fmt.Errorf("set WAL mode: %w", err)}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &domain.StateError{Path: path, Err: fmt.Errorf("bootstrap schema: %w", err)}
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadTracking materializes the full tracking record from the three tables.
func (s *SQLiteStore) LoadTracking(ctx context.Context) (domain.Tracking, error) {
	var tracking domain.Tracking

	rows, err := sq.Select("id").From("posted_items").OrderBy("seq ASC").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return domain.Tracking{}, &domain.StateError{Path: "posted_items", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return domain.Tracking{}, &domain.StateError{Path: "posted_items", Err: err}
		}
		tracking.PostedItems = append(tracking.PostedItems, id)
	}
	if err := rows.Err(); err != nil {
		return domain.Tracking{}, &domain.StateError{Path: "posted_items", Err: err}
	}

	feedRows, err := sq.Select("feed_id", "last_checked_at", "error_count").From("feed_state").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return domain.Tracking{}, &domain.StateError{Path: "feed_state", Err: err}
	}
	defer feedRows.Close()

	for feedRows.Next() {
		var (
			feedID    string
			checkedAt time.Time
			errCount  int
		)
		if err := feedRows.Scan(&feedID, &checkedAt, &errCount); err != nil {
			return domain.Tracking{}, &domain.StateError{Path: "feed_state", Err: err}
		}
		if tracking.Feeds == nil {
			tracking.Feeds = map[string]domain.FeedRunState{}
		}
		tracking.Feeds[feedID] = domain.FeedRunState{LastCheckedAt: checkedAt, ErrorCount: errCount}
	}
	if err := feedRows.Err(); err != nil {
		return domain.Tracking{}, &domain.StateError{Path: "feed_state", Err: err}
	}

	var (
		lastCheck   sql.NullTime
		lastRunTime sql.NullTime
	)
	err = sq.Select("last_check", "total_items_posted", "last_run_posted", "last_run_time").
		From("run_stats").Where(sq.Eq{"id": 1}).
		RunWith(s.db).QueryRowContext(ctx).
		Scan(&lastCheck, &tracking.Stats.TotalItemsPosted, &tracking.Stats.LastRunPosted, &lastRunTime)
	if err != nil && err != sql.ErrNoRows {
		return domain.Tracking{}, &domain.StateError{Path: "run_stats", Err: err}
	}
	if lastCheck.Valid {
		tracking.LastCheck = lastCheck.Time
	}
	if lastRunTime.Valid {
		tracking.Stats.LastRunTime = lastRunTime.Time
	}

	return tracking, nil
}

// SaveTracking rewrites the full record in one transaction, mirroring the
// read-once/write-once contract of the JSON store.
func (s *SQLiteStore) SaveTracking(ctx context.Context, tracking domain.Tracking) error {
	tracking.Trim()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StateError{Path: "tracking", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM posted_items"); err != nil {
		return &domain.StateError{Path: "posted_items", Err: err}
	}
	now := time.Now().UTC()
	for seq, id := range tracking.PostedItems {
		_, err := sq.Insert("posted_items").Columns("id", "seq", "posted_at").
			Values(id, seq, now).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return &domain.StateError{Path: "posted_items", Err: err}
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM feed_state"); err != nil {
		return &domain.StateError{Path: "feed_state", Err: err}
	}
	for feedID, state := range tracking.Feeds {
		_, err := sq.Insert("feed_state").Columns("feed_id", "last_checked_at", "error_count").
			Values(feedID, state.LastCheckedAt, state.ErrorCount).
			RunWith(tx).ExecContext(ctx)
		if err != nil {
			return &domain.StateError{Path: "feed_state", Err: err}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_stats (id, last_check, total_items_posted, last_run_posted, last_run_time)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			last_check = excluded.last_check,
			total_items_posted = excluded.total_items_posted,
			last_run_posted = excluded.last_run_posted,
			last_run_time = excluded.last_run_time`,
		tracking.LastCheck, tracking.Stats.TotalItemsPosted,
		tracking.Stats.LastRunPosted, tracking.Stats.LastRunTime)
	if err != nil {
		return &domain.StateError{Path: "run_stats", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StateError{Path: "tracking", Err: err}
	}
	return nil
}
