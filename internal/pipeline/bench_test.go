package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/salescast/internal/auth"
	"github.com/theirongolddev/salescast/internal/store"
)

func BenchmarkView(b *testing.B) {
	s := store.NewCSVStore(filepath.Join(b.TempDir(), "sales_data.csv"))
	ctx := context.Background()
	for _, r := range history(365) {
		if err := s.Save(ctx, r); err != nil {
			b.Fatal(err)
		}
	}
	d := New(s, 7)
	sess := auth.Restore("", "admin")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.View(ctx, sess); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSummarize(b *testing.B) {
	records := history(3650)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(records)
	}
}
