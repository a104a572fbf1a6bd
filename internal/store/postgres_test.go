package store

import (
	"context"
	"os"
	"testing"
)

func TestPostgresStoreContract(t *testing.T) {
	url := os.Getenv("SALESCAST_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SALESCAST_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	s, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := s.pool.Exec(ctx, "TRUNCATE daily_records"); err != nil {
		t.Fatalf("truncating: %v", err)
	}
	testStoreContract(t, s)
}
