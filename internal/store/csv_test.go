package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCSVStoreContract(t *testing.T) {
	testStoreContract(t, NewCSVStore(filepath.Join(t.TempDir(), "sales_data.csv")))
}

func TestCSVStoreMissingFile(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "nope", "sales_data.csv"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load len = %d, want 0", len(got))
	}
}

func TestCSVStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales_data.csv")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := NewCSVStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load on empty file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load len = %d, want 0", len(got))
	}
}

func TestCSVStoreFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sales_data.csv")
	s := NewCSVStore(path)
	ctx := context.Background()

	if err := s.Save(ctx, rec("2024-01-01", 1000, 10)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, rec("2024-01-01", 1200, 12)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	want := "date,sales,customers,weather,addons\n2024-01-01,1200,12,Sunny,120\n"
	if string(data) != want {
		t.Errorf("file contents:\n%s\nwant:\n%s", data, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("data dir has %d entries, want only the data file", len(entries))
	}
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"header only", "date,sales,customers,weather,addons\n", 0, false},
		{"empty", "", 0, false},
		{"reordered columns", "weather,date,addons,customers,sales\nRainy,2024-01-05,0,3,99.5\n", 1, false},
		{"float customers", "date,sales,customers,weather,addons\n2024-01-05,10.0,7.0,Cloudy,0.0\n", 1, false},
		{"blank line skipped", "date,sales,customers,weather,addons\n\n2024-01-05,10,7,Cloudy,0\n", 1, false},
		{"missing column", "date,sales,customers,weather\n2024-01-05,10,7,Cloudy\n", 0, true},
		{"bad date", "date,sales,customers,weather,addons\n01/05/2024,10,7,Cloudy,0\n", 0, true},
		{"bad sales", "date,sales,customers,weather,addons\n2024-01-05,ten,7,Cloudy,0\n", 0, true},
		{"fractional customers", "date,sales,customers,weather,addons\n2024-01-05,10,7.5,Cloudy,0\n", 0, true},
		{"bad weather", "date,sales,customers,weather,addons\n2024-01-05,10,7,Snowy,0\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRecords(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadRecords err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("ReadRecords len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestCSVStoreCorruptFilePropagates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales_data.csv")
	if err := os.WriteFile(path, []byte("date,sales\n2024-01-01,5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewCSVStore(path)
	if _, err := s.Load(context.Background()); err == nil {
		t.Error("Load on a file missing columns returned nil error")
	}
	if err := s.Save(context.Background(), rec("2024-01-02", 1, 1)); err == nil {
		t.Error("Save over an unreadable file returned nil error")
	}
}
