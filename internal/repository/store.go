package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jpsoriano/permit-extractor/internal/cache"
	"github.com/jpsoriano/permit-extractor/internal/common"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path         TEXT PRIMARY KEY,
	size         INTEGER NOT NULL,
	mtime        INTEGER NOT NULL,
	processed_at TEXT NOT NULL,
	result_json  TEXT
);
`

// Store persists finished cache entries in SQLite so the processing cache
// survives restarts. One row per document path; a NULL result marks a failed
// attempt that should be retried.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create store dir %s: %v", common.ErrStore, dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite store: %v", common.ErrStore, err)
	}
	// modernc sqlite is single-writer; keep the pool at one connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply store schema: %v", common.ErrStore, err)
	}
	logger.Info("store.open", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEntry upserts one document's cache entry.
func (s *Store) SaveEntry(ctx context.Context, path string, e cache.Entry) error {
	var resultJSON sql.NullString
	if e.Result != nil {
		b, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("%w: encode record: %v", common.ErrStore, err)
		}
		resultJSON = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, size, mtime, processed_at, result_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			processed_at = excluded.processed_at,
			result_json = excluded.result_json`,
		path, e.Sig.Size, e.Sig.MTime, e.ProcessedAt.UTC().Format(time.RFC3339), resultJSON,
	)
	if err != nil {
		return fmt.Errorf("%w: save entry for %s: %v", common.ErrStore, path, err)
	}
	return nil
}

// LoadEntries reads every persisted entry, keyed by path, for warming the
// in-memory cache at startup. Rows with unparseable payloads are skipped.
func (s *Store) LoadEntries(ctx context.Context) (map[string]cache.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, size, mtime, processed_at, result_json FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("%w: load entries: %v", common.ErrStore, err)
	}
	defer rows.Close()

	out := make(map[string]cache.Entry)
	for rows.Next() {
		var (
			path        string
			size, mtime int64
			processedAt string
			resultJSON  sql.NullString
		)
		if err := rows.Scan(&path, &size, &mtime, &processedAt, &resultJSON); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", common.ErrStore, err)
		}
		e := cache.Entry{Sig: cache.FileSignature{Size: size, MTime: mtime}}
		if t, err := time.Parse(time.RFC3339, processedAt); err == nil {
			e.ProcessedAt = t
		}
		if resultJSON.Valid {
			var rec record.PermitRecord
			if err := json.Unmarshal([]byte(resultJSON.String), &rec); err != nil {
				s.logger.Warn("store.entry.decode_failed", "path", path, "error", err)
				continue
			}
			e.Result = &rec
		}
		out[path] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", common.ErrStore, err)
	}
	return out, nil
}

// ListRecords returns the successfully extracted records ordered by path,
// ready for export.
func (s *Store) ListRecords(ctx context.Context) ([]*record.PermitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, result_json FROM documents WHERE result_json IS NOT NULL ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", common.ErrStore, err)
	}
	defer rows.Close()

	var out []*record.PermitRecord
	for rows.Next() {
		var path, resultJSON string
		if err := rows.Scan(&path, &resultJSON); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", common.ErrStore, err)
		}
		var rec record.PermitRecord
		if err := json.Unmarshal([]byte(resultJSON), &rec); err != nil {
			s.logger.Warn("store.record.decode_failed", "path", path, "error", err)
			continue
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %v", common.ErrStore, err)
	}
	return out, nil
}

// Delete removes one document row, used when its source file disappears.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("%w: delete entry for %s: %v", common.ErrStore, path, err)
	}
	return nil
}
