// Package store persists fragrance records in a local SQLite database.
// Writes are buffered in an explicit transaction and flushed by Commit,
// so the pipeline can batch commits without paying a transaction per
// record. Upserts are insert-if-absent by id: re-ingesting an id is a
// no-op and never overwrites the stored row.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/akashkarthik473/scent-showdown/models"
)

// Store wraps the SQLite database. Safe for concurrent use; writes go
// through a single serialized path.
type Store struct {
	db *sql.DB

	// mu serializes writes so check-then-insert stays atomic with
	// respect to the open batch transaction.
	mu sync.Mutex
	tx *sql.Tx
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, models.NewIngestError(models.ErrCodeStoreFailure, "failed to open database", err)
	}

	// SQLite supports a single writer; keep the pool at one connection
	// so the batch transaction owns it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, models.NewIngestError(models.ErrCodeStoreFailure, "failed to enable WAL mode", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, models.NewIngestError(models.ErrCodeStoreFailure, "failed to create tables", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fragrances (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		image_url TEXT,
		local_image_path TEXT
	);

	CREATE TABLE IF NOT EXISTS wins (
		id INTEGER PRIMARY KEY,
		wins INTEGER DEFAULT 0,
		FOREIGN KEY (id) REFERENCES fragrances(id)
	);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// begin lazily opens the batch transaction. Caller must hold mu.
func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// UpsertFragrance buffers an insert-if-absent write for the record. An id
// that already exists is left untouched, whatever the new values are; the
// external id is the idempotency key.
func (s *Store) UpsertFragrance(ctx context.Context, id int, name, imageURL, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return models.NewIngestError(models.ErrCodeStoreFailure, "upsert failed", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fragrances (id, name, image_url, local_image_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name, nullable(imageURL), nullable(localPath))
	if err != nil {
		return models.NewIngestError(models.ErrCodeStoreFailure, fmt.Sprintf("upsert of id %d failed", id), err)
	}
	return nil
}

// Commit flushes buffered writes. A no-op when nothing is buffered.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return models.NewIngestError(models.ErrCodeStoreFailure, "batch commit failed", err)
	}
	return nil
}

// RecordWin increments the win counter for id, creating the row on first
// win. Used by the voting UI, not by the ingest pipeline.
func (s *Store) RecordWin(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return models.NewIngestError(models.ErrCodeStoreFailure,
			"cannot record win while a batch is open", nil)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wins (id, wins)
		VALUES (?, 1)
		ON CONFLICT(id) DO UPDATE SET wins = wins + 1
	`, id)
	if err != nil {
		return models.NewIngestError(models.ErrCodeStoreFailure, fmt.Sprintf("record win for id %d failed", id), err)
	}
	return nil
}

// Fragrance returns the stored record for id, or nil when absent.
func (s *Store) Fragrance(ctx context.Context, id int) (*models.Fragrance, error) {
	var f models.Fragrance
	var imageURL, localPath sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, image_url, local_image_path
		FROM fragrances WHERE id = ?
	`, id).Scan(&f.ID, &f.Name, &imageURL, &localPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewIngestError(models.ErrCodeStoreFailure, fmt.Sprintf("query of id %d failed", id), err)
	}

	f.ImageURL = imageURL.String
	f.LocalImagePath = localPath.String
	return &f, nil
}

// Count returns the number of stored fragrances.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragrances`).Scan(&n); err != nil {
		return 0, models.NewIngestError(models.ErrCodeStoreFailure, "count failed", err)
	}
	return n, nil
}

// TopWins returns up to limit fragrances ordered by accumulated wins.
func (s *Store) TopWins(ctx context.Context, limit int) ([]models.WinCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wins FROM wins ORDER BY wins DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, models.NewIngestError(models.ErrCodeStoreFailure, "top wins query failed", err)
	}
	defer rows.Close()

	var results []models.WinCount
	for rows.Next() {
		var wc models.WinCount
		if err := rows.Scan(&wc.ID, &wc.Wins); err != nil {
			return nil, models.NewIngestError(models.ErrCodeStoreFailure, "top wins scan failed", err)
		}
		results = append(results, wc)
	}
	return results, rows.Err()
}

// Close commits any outstanding batch and closes the database. Buffered
// writes are flushed rather than discarded so a clean shutdown never
// loses processed records.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.tx != nil {
		tx := s.tx
		s.tx = nil
		if err := tx.Commit(); err != nil {
			s.mu.Unlock()
			_ = s.db.Close()
			return models.NewIngestError(models.ErrCodeStoreFailure, "final commit failed", err)
		}
	}
	s.mu.Unlock()
	return s.db.Close()
}

// nullable maps "" to NULL so optional columns stay NULL-typed.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
