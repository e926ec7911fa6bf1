package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inspector/internal/extractor"
	"inspector/internal/graph"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry TEXT NOT NULL,
			framework TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			files INTEGER NOT NULL DEFAULT 0,
			errors JSON
		);`,
		`CREATE TABLE IF NOT EXISTS routes (
			scan_id INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			middleware JSON,
			file TEXT,
			line INTEGER,
			PRIMARY KEY (scan_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS mounts (
			scan_id INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			parent TEXT NOT NULL,
			child TEXT NOT NULL,
			prefix TEXT NOT NULL,
			PRIMARY KEY (scan_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_routes_path ON routes(path);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveScan(ctx context.Context, scan *Scan) (int64, error) {
	if scan == nil {
		return 0, errors.New("nil scan")
	}
	createdAt := scan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	errs, err := json.Marshal(scan.Errors)
	if err != nil {
		return 0, fmt.Errorf("failed to encode errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scans (entry, framework, created_at, files, errors) VALUES (?, ?, ?, ?, ?)`,
		scan.Entry, scan.Framework, createdAt.UnixMilli(), scan.Files, errs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	routeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routes (scan_id, seq, method, path, middleware, file, line)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer routeStmt.Close()

	for i, r := range scan.Routes {
		mw, err := json.Marshal(r.Middleware)
		if err != nil {
			return 0, fmt.Errorf("failed to encode middleware of %s %s: %w", r.Method, r.Path, err)
		}
		if _, err := routeStmt.ExecContext(ctx, id, i, r.Method, r.Path, mw, r.File, r.Line); err != nil {
			return 0, fmt.Errorf("failed to insert route: %w", err)
		}
	}

	mountStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mounts (scan_id, seq, parent, child, prefix) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer mountStmt.Close()

	for i, m := range scan.Mounts {
		if _, err := mountStmt.ExecContext(ctx, id, i, m.Parent, m.Child, m.Prefix); err != nil {
			return 0, fmt.Errorf("failed to insert mount: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	scan.ID = id
	scan.CreatedAt = time.UnixMilli(createdAt.UnixMilli())
	return id, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context) ([]ScanSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.entry, s.framework, s.created_at, s.files, s.errors,
			(SELECT COUNT(*) FROM routes r WHERE r.scan_id = s.id)
		FROM scans s
		ORDER BY s.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var sum ScanSummary
		var createdAt int64
		var errs []byte
		if err := rows.Scan(&sum.ID, &sum.Entry, &sum.Framework, &createdAt, &sum.Files, &errs, &sum.RouteCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(createdAt)
		sum.ErrorCount = len(decodeErrors(errs))
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadScan(ctx context.Context, id int64) (*Scan, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, entry, framework, created_at, files, errors FROM scans WHERE id = ?", id)

	var scan Scan
	var createdAt int64
	var errs []byte
	if err := row.Scan(&scan.ID, &scan.Entry, &scan.Framework, &createdAt, &scan.Files, &errs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrScanNotFound, id)
		}
		return nil, err
	}
	scan.CreatedAt = time.UnixMilli(createdAt)
	scan.Errors = decodeErrors(errs)

	routes, err := s.loadRoutes(ctx, id)
	if err != nil {
		return nil, err
	}
	scan.Routes = routes

	mounts, err := s.loadMounts(ctx, id)
	if err != nil {
		return nil, err
	}
	scan.Mounts = mounts

	return &scan, nil
}

func (s *SQLiteStore) LoadRoutes(ctx context.Context, id int64) ([]extractor.Route, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM scans WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return s.loadRoutes(ctx, id)
}

func (s *SQLiteStore) loadRoutes(ctx context.Context, id int64) ([]extractor.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT method, path, middleware, file, line FROM routes WHERE scan_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := []extractor.Route{}
	for rows.Next() {
		var r extractor.Route
		var mw []byte
		if err := rows.Scan(&r.Method, &r.Path, &mw, &r.File, &r.Line); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		if len(mw) > 0 {
			if err := json.Unmarshal(mw, &r.Middleware); err != nil {
				return nil, fmt.Errorf("failed to decode middleware: %w", err)
			}
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *SQLiteStore) loadMounts(ctx context.Context, id int64) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT parent, child, prefix FROM mounts WHERE scan_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query mounts: %w", err)
	}
	defer rows.Close()

	var mounts []graph.Edge
	for rows.Next() {
		var m graph.Edge
		if err := rows.Scan(&m.Parent, &m.Child, &m.Prefix); err != nil {
			return nil, fmt.Errorf("failed to scan mount: %w", err)
		}
		mounts = append(mounts, m)
	}
	return mounts, rows.Err()
}

func decodeErrors(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var errs []string
	_ = json.Unmarshal(raw, &errs)
	return errs
}
