package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteStore keeps records in an embedded SQLite database keyed by date.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at the given path.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save upserts rec by date. The replaced row takes the newest position in
// load order.
func (s *SQLiteStore) Save(ctx context.Context, rec model.DailyRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM daily_records").Scan(&seq); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO daily_records
		(date, sales, customers, weather, addons, seq, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Key(), rec.Sales.String(), rec.Customers, string(rec.Weather),
		rec.Addons.String(), seq, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", rec.Key(), err)
	}

	return tx.Commit()
}

// Load returns all records in save order.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, sales, customers, weather, addons FROM daily_records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.DailyRecord
	for rows.Next() {
		var date, sales, weather, addons string
		var rec model.DailyRecord
		if err := rows.Scan(&date, &sales, &rec.Customers, &weather, &addons); err != nil {
			return nil, err
		}
		if rec.Date, err = model.ParseDate(date); err != nil {
			return nil, err
		}
		if rec.Sales, err = decimal.NewFromString(sales); err != nil {
			return nil, fmt.Errorf("sales for %s: %w", date, err)
		}
		if rec.Addons, err = decimal.NewFromString(addons); err != nil {
			return nil, fmt.Errorf("addons for %s: %w", date, err)
		}
		rec.Weather = model.Weather(weather)
		result = append(result, rec)
	}
	return result, rows.Err()
}
