package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/model"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(date string, sales int64, customers int) model.DailyRecord {
	return model.DailyRecord{
		Date:      day(date),
		Sales:     decimal.NewFromInt(sales),
		Customers: customers,
		Weather:   model.Sunny,
		Addons:    decimal.NewFromInt(sales / 10),
	}
}

func keys(records []model.DailyRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDedupeKeepsLast(t *testing.T) {
	in := []model.DailyRecord{
		rec("2024-01-01", 100, 1),
		rec("2024-01-02", 200, 2),
		rec("2024-01-01", 150, 3),
		rec("2024-01-03", 300, 4),
	}
	got := Dedupe(in)

	wantKeys := []string{"2024-01-02", "2024-01-01", "2024-01-03"}
	if !equalStrings(keys(got), wantKeys) {
		t.Fatalf("Dedupe keys = %v, want %v", keys(got), wantKeys)
	}
	if got[1].Customers != 3 {
		t.Errorf("surviving 2024-01-01 customers = %d, want 3", got[1].Customers)
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) len = %d, want 0", len(got))
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "mongo"}); err == nil {
		t.Fatal("Open accepted an unknown backend")
	}
	if _, err := Open(context.Background(), Options{Backend: BackendPostgres}); err == nil {
		t.Fatal("Open accepted postgres without a database url")
	}
}

func TestOpenDefaultsToCSV(t *testing.T) {
	s, err := Open(context.Background(), Options{DataFile: t.TempDir() + "/sales_data.csv"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()
	if _, ok := s.(*CSVStore); !ok {
		t.Errorf("Open with no backend = %T, want *CSVStore", s)
	}
}

// testStoreContract runs the behaviour every backend must share.
func testStoreContract(t *testing.T, s RecordStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty store Load len = %d, want 0", len(got))
	}

	first := rec("2024-01-01", 1000, 10)
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load len = %d, want 1", len(got))
	}
	if !got[0].Sales.Equal(first.Sales) || got[0].Customers != 10 || got[0].Weather != model.Sunny {
		t.Errorf("Load[0] = %+v, want %+v", got[0], first)
	}

	if err := s.Save(ctx, rec("2024-01-02", 2000, 20)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	replacement := rec("2024-01-01", 1500, 15)
	replacement.Weather = model.Rainy
	replacement.Addons = decimal.RequireFromString("12.50")
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantKeys := []string{"2024-01-02", "2024-01-01"}
	if !equalStrings(keys(got), wantKeys) {
		t.Fatalf("Load keys = %v, want %v", keys(got), wantKeys)
	}
	last := got[1]
	if !last.Sales.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("replaced sales = %s, want 1500", last.Sales)
	}
	if last.Customers != 15 {
		t.Errorf("replaced customers = %d, want 15", last.Customers)
	}
	if last.Weather != model.Rainy {
		t.Errorf("replaced weather = %s, want Rainy", last.Weather)
	}
	if !last.Addons.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("replaced addons = %s, want 12.5", last.Addons)
	}

	// Saving the same record twice leaves one row for the day.
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !equalStrings(keys(got), wantKeys) {
		t.Fatalf("Load keys after identical save = %v, want %v", keys(got), wantKeys)
	}

	// Amounts come back exactly as saved, with no rounding or range cap.
	precise := rec("2024-01-03", 0, 3)
	precise.Sales = decimal.RequireFromString("10.005")
	precise.Addons = decimal.RequireFromString("123456789012345.6789")
	if err := s.Save(ctx, precise); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Load len = %d, want 3", len(got))
	}
	if !got[2].Sales.Equal(precise.Sales) {
		t.Errorf("sales = %s, want %s", got[2].Sales, precise.Sales)
	}
	if !got[2].Addons.Equal(precise.Addons) {
		t.Errorf("addons = %s, want %s", got[2].Addons, precise.Addons)
	}
}

func TestImportLastWins(t *testing.T) {
	ctx := context.Background()
	s := NewCSVStore(t.TempDir() + "/sales_data.csv")

	in := []model.DailyRecord{
		rec("2024-02-01", 10, 1),
		rec("2024-02-02", 20, 2),
		rec("2024-02-01", 30, 3),
	}
	n, err := Import(ctx, s, in)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 3 {
		t.Errorf("Import saved %d, want 3", n)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load len = %d, want 2", len(got))
	}
	if got[1].Key() != "2024-02-01" || got[1].Customers != 3 {
		t.Errorf("last record = %s/%d, want 2024-02-01/3", got[1].Key(), got[1].Customers)
	}
}

func TestImportRejectsInvalid(t *testing.T) {
	s := NewCSVStore(t.TempDir() + "/sales_data.csv")
	bad := rec("2024-02-01", 10, 1)
	bad.Customers = -1
	if _, err := Import(context.Background(), s, []model.DailyRecord{bad}); err == nil {
		t.Fatal("Import accepted a negative customer count")
	}
}
