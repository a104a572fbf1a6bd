package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/model"
)

// PostgresStore keeps records in a shared PostgreSQL table keyed by date.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Save upserts rec by date and moves it to the newest load position.
func (s *PostgresStore) Save(ctx context.Context, rec model.DailyRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_records (date, sales, customers, weather, addons)
		VALUES ($1::date, $2::numeric, $3, $4, $5::numeric)
		ON CONFLICT (date) DO UPDATE SET
			sales = EXCLUDED.sales,
			customers = EXCLUDED.customers,
			weather = EXCLUDED.weather,
			addons = EXCLUDED.addons,
			seq = nextval(pg_get_serial_sequence('daily_records', 'seq')),
			saved_at = now()`,
		rec.Key(), rec.Sales.String(), rec.Customers, string(rec.Weather), rec.Addons.String(),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", rec.Key(), err)
	}
	return nil
}

// Load returns all records in save order.
func (s *PostgresStore) Load(ctx context.Context) ([]model.DailyRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date::text, sales::text, customers, weather, addons::text
		FROM daily_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

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
