// Package store persists daily records keyed by calendar date.
//
// Every backend follows the same contract: saving a record whose date is
// already present replaces the earlier one, and Load returns the surviving
// records in the order they were last saved. An absent store loads as empty.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/salescast/internal/model"
)

// Columns is the fixed record schema, in persisted column order.
var Columns = []string{"date", "sales", "customers", "weather", "addons"}

// RecordStore is the persistence contract shared by all backends.
type RecordStore interface {
	Save(ctx context.Context, rec model.DailyRecord) error
	Load(ctx context.Context) ([]model.DailyRecord, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DataFile    string
	SQLitePath  string
	DatabaseURL string
}

// Open returns the RecordStore named by opts.Backend. An empty backend
// selects the CSV file store.
func Open(ctx context.Context, opts Options) (RecordStore, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendCSV:
		if opts.DataFile == "" {
			return nil, fmt.Errorf("csv backend: data file path is required")
		}
		return NewCSVStore(opts.DataFile), nil
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = strings.TrimSuffix(opts.DataFile, filepath.Ext(opts.DataFile)) + ".db"
		}
		return OpenSQLite(path)
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend: database url is required")
		}
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown backend %q (want csv, sqlite or postgres)", opts.Backend)
	}
}

// Dedupe keeps the last occurrence of each date. Survivors keep their
// relative order, so a date that was re-saved moves to its latest position.
func Dedupe(records []model.DailyRecord) []model.DailyRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.Key()] = i
	}
	out := make([]model.DailyRecord, 0, len(last))
	for i, r := range records {
		if last[r.Key()] == i {
			out = append(out, r)
		}
	}
	return out
}

// Import saves records into dst in order. A later record for a date
// replaces an earlier one, matching Save.
func Import(ctx context.Context, dst RecordStore, records []model.DailyRecord) (int, error) {
	n := 0
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := r.Validate(); err != nil {
			return n, fmt.Errorf("record %s: %w", r.Key(), err)
		}
		if err := dst.Save(ctx, r); err != nil {
			return n, fmt.Errorf("saving %s: %w", r.Key(), err)
		}
		n++
	}
	return n, nil
}
