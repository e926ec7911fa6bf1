package storage

import (
	"context"
	"errors"
	"time"

	"inspector/internal/extractor"
	"inspector/internal/graph"
)

// ErrScanNotFound is returned when a scan id does not exist.
var ErrScanNotFound = errors.New("scan not found")

// Scan is one persisted run over a codebase.
type Scan struct {
	ID        int64             `json:"id"`
	Entry     string            `json:"entry"`
	Framework string            `json:"framework"`
	CreatedAt time.Time         `json:"created_at"`
	Files     int               `json:"files"`
	Routes    []extractor.Route `json:"routes"`
	Mounts    []graph.Edge      `json:"mounts,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

// ScanSummary is a row of the scan history.
type ScanSummary struct {
	ID         int64     `json:"id"`
	Entry      string    `json:"entry"`
	Framework  string    `json:"framework"`
	CreatedAt  time.Time `json:"created_at"`
	Files      int       `json:"files"`
	RouteCount int       `json:"route_count"`
	ErrorCount int       `json:"error_count"`
}

// Store persists scan snapshots.
type Store interface {
	ScanStore
	Close() error
}

// ScanStore defines operations for the scan history.
type ScanStore interface {
	// SaveScan writes a scan with its routes and mounts and returns its id.
	SaveScan(ctx context.Context, scan *Scan) (int64, error)

	// ListScans returns the history, newest first.
	ListScans(ctx context.Context) ([]ScanSummary, error)

	// LoadScan retrieves a scan with its routes, mounts and errors.
	LoadScan(ctx context.Context, id int64) (*Scan, error)

	// LoadRoutes retrieves only the routes of a scan, in their saved order.
	LoadRoutes(ctx context.Context, id int64) ([]extractor.Route, error)
}
