package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salescast/internal/model"
)

// CSVStore keeps all records in a single CSV file that is rewritten in
// full on every save.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore returns a store backed by the CSV file at path. The file is
// created on first save.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Load reads every record from the file. A missing or empty file yields no
// records and no error.
func (s *CSVStore) Load(_ context.Context) ([]model.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save appends rec, drops earlier records with the same date, and rewrites
// the file.
func (s *CSVStore) Save(_ context.Context, rec model.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = Dedupe(append(records, rec))
	return s.write(records)
}

// Close is a no-op; the file is not held open between calls.
func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) load() ([]model.DailyRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return records, nil
}

// write replaces the file via a temp file and rename so readers never see
// a partial file.
func (s *CSVStore) write(records []model.DailyRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := WriteRecords(tmp, records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// WriteRecords encodes records as CSV with a header row and no index column.
func WriteRecords(w io.Writer, records []model.DailyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Key(),
			r.Sales.String(),
			strconv.Itoa(r.Customers),
			string(r.Weather),
			r.Addons.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords decodes CSV produced by WriteRecords. Columns are matched by
// header name, so extra or reordered columns are tolerated. Empty input
// yields no records.
func ReadRecords(r io.Reader) ([]model.DailyRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var records []model.DailyRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, idx map[string]int) (model.DailyRecord, error) {
	cell := func(name string) string {
		i := idx[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec model.DailyRecord
	var err error

	if rec.Date, err = model.ParseDate(cell("date")); err != nil {
		return rec, err
	}
	if rec.Sales, err = decimal.NewFromString(cell("sales")); err != nil {
		return rec, fmt.Errorf("sales: %w", err)
	}
	if rec.Customers, err = parseCount(cell("customers")); err != nil {
		return rec, fmt.Errorf("customers: %w", err)
	}
	if rec.Weather, err = model.ParseWeather(cell("weather")); err != nil {
		return rec, err
	}
	if rec.Addons, err = decimal.NewFromString(cell("addons")); err != nil {
		return rec, fmt.Errorf("addons: %w", err)
	}
	return rec, nil
}

// parseCount accepts integers and whole-valued floats such as "12.0".
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
