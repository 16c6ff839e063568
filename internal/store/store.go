// Package store handles SQLite persistence of count snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/triviadash/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Fixed-width UTC timestamps so text comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for snapshot history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			taken_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			sample_size INTEGER NOT NULL,
			total INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_counts (
			snapshot_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			category_name TEXT NOT NULL,
			total INTEGER NOT NULL,
			easy INTEGER NOT NULL,
			medium INTEGER NOT NULL,
			hard INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, category_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshot stores a snapshot and its per-category rows. TakenAt defaults
// to now and Total to the sum of the rows.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.Snapshot) (id int64, err error) {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	if snap.Total == 0 {
		for _, c := range snap.Counts {
			snap.Total += c.Counts.Total
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, mode, sample_size, total) VALUES (?, ?, ?, ?)`,
		snap.TakenAt.UTC().Format(timeLayout),
		snap.Mode.String(),
		snap.SampleSize,
		snap.Total,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(snap.Counts) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_counts (snapshot_id, category_id, category_name, total, easy, medium, hard)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, c := range snap.Counts {
			if _, err = stmt.ExecContext(ctx, id, c.CategoryID, c.CategoryName, c.Counts.Total, c.Counts.Easy, c.Counts.Medium, c.Counts.Hard); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSnapshots returns snapshot headers oldest first, without per-category rows.
func (s *Store) ListSnapshots(ctx context.Context, filter model.HistoryFilter) ([]model.Snapshot, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Mode != nil {
		clauses = append(clauses, "mode = ?")
		args = append(args, filter.Mode.String())
	}
	if filter.Since != nil {
		clauses = append(clauses, "taken_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, taken_at, mode, sample_size, total
		FROM snapshots
		WHERE %s
		ORDER BY taken_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var snapshots []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var takenAt, mode string
		if err := rows.Scan(&snap.ID, &takenAt, &mode, &snap.SampleSize, &snap.Total); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, takenAt)
		if err != nil {
			return nil, err
		}
		snap.TakenAt = parsed
		if snap.Mode, err = model.ParseMode(mode); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(snapshots) > filter.Last {
		snapshots = snapshots[len(snapshots)-filter.Last:]
	}
	return snapshots, nil
}

// SnapshotCounts returns the per-category rows of a snapshot, largest first.
func (s *Store) SnapshotCounts(ctx context.Context, snapshotID int64) ([]model.SnapshotCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, category_name, total, easy, medium, hard
		 FROM snapshot_counts
		 WHERE snapshot_id = ?
		 ORDER BY total DESC, category_name ASC`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SnapshotCount
	for rows.Next() {
		var c model.SnapshotCount
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.Counts.Total, &c.Counts.Easy, &c.Counts.Medium, &c.Counts.Hard); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// NewSnapshot builds a snapshot from counts, resolving category names.
func NewSnapshot(mode model.Mode, sampleSize int, categories []model.Category, counts []model.CategoryQuestionCount) model.Snapshot {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	snap := model.Snapshot{Mode: mode, Counts: make([]model.SnapshotCount, 0, len(counts))}
	if mode == model.ModeSample {
		snap.SampleSize = sampleSize
	}
	for _, c := range counts {
		name, ok := names[c.CategoryID]
		if !ok {
			name = fmt.Sprintf("Category %d", c.CategoryID)
		}
		snap.Counts = append(snap.Counts, model.SnapshotCount{CategoryID: c.CategoryID, CategoryName: name, Counts: c.Counts})
		snap.Total += c.Counts.Total
	}
	return snap
}
