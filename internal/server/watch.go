package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
)

// EventStoreChanged is published when the store changed without a save
// through this server, e.g. `salescast add` against the same data file.
const EventStoreChanged = "store_changed"

// minPollInterval is the shortest store poll Run will use.
const minPollInterval = 2 * time.Second

// Snapshot is a compact view of the store used to detect outside writes.
type Snapshot struct {
	Records        int             `json:"records"`
	LastDate       string          `json:"last_date,omitempty"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalCustomers int             `json:"total_customers"`
	TotalAddons    decimal.Decimal `json:"total_addons"`
	// Digest changes whenever any stored field does, including edits the
	// totals cancel out.
	Digest string `json:"digest"`
}

// Delta captures snapshot differences between polls.
type Delta struct {
	Records   int             `json:"records"`
	Sales     decimal.Decimal `json:"sales"`
	Customers int             `json:"customers"`
	Addons    decimal.Decimal `json:"addons"`
}

func (d Delta) isZero() bool {
	return d.Records == 0 &&
		d.Sales.IsZero() &&
		d.Customers == 0 &&
		d.Addons.IsZero()
}

func snapshotOf(records []model.DailyRecord) Snapshot {
	sum := pipeline.Summarize(records)
	snap := Snapshot{
		Records:        sum.Records,
		TotalSales:     sum.TotalSales,
		TotalCustomers: sum.TotalCustomers,
		TotalAddons:    sum.TotalAddons,
	}
	if sum.Records > 0 {
		snap.LastDate = sum.LastDate.Format(model.DateLayout)
	}
	snap.Digest = digestOf(records)
	return snap
}

// digestOf hashes records in date order, so a replace that only moves a day
// to the end of the store leaves it unchanged.
func digestOf(records []model.DailyRecord) string {
	h := sha256.New()
	for _, r := range pipeline.SortByDate(records) {
		fmt.Fprintf(h, "%s|%s|%d|%s|%s\n", r.Key(), r.Sales, r.Customers, r.Weather, r.Addons)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:   curr.Records - prev.Records,
		Sales:     curr.TotalSales.Sub(prev.TotalSales),
		Customers: curr.TotalCustomers - prev.TotalCustomers,
		Addons:    curr.TotalAddons.Sub(prev.TotalAddons),
	}
}

// watcher polls the store and reports changes not made through the server.
type watcher struct {
	prev      Snapshot
	seeded    bool
	saveCount int64
}

// watch polls until ctx is canceled.
func (s *Server) watch(ctx context.Context, interval time.Duration) {
	interval = max(interval, minPollInterval)
	var w watcher
	s.pollOnce(ctx, &w)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx, &w)
		}
	}
}

// pollOnce loads the store and publishes EventStoreChanged when it differs
// from the last poll and no save went through the server in between. A poll
// window holding both kinds of write reports nothing.
func (s *Server) pollOnce(ctx context.Context, w *watcher) {
	records, err := s.dash.Store.Load(ctx)
	if err != nil {
		s.recordError(err)
		s.log.Warn("store poll failed", zap.Error(err))
		return
	}
	snap := snapshotOf(records)

	s.mu.RLock()
	saves := s.saveCount
	s.mu.RUnlock()

	prev, seeded, ownSaves := w.prev, w.seeded, saves != w.saveCount
	w.prev, w.seeded, w.saveCount = snap, true, saves
	if !seeded || ownSaves {
		return
	}
	delta := diffSnapshots(prev, snap)
	if delta.isZero() && snap.Digest == prev.Digest {
		return
	}

	s.log.Info("store changed outside server",
		zap.Int("records", snap.Records),
		zap.Int("record_delta", delta.Records))
	s.publish(Event{
		Type:      EventStoreChanged,
		Timestamp: time.Now(),
		Date:      snap.LastDate,
		Snapshot:  &snap,
		Delta:     &delta,
	})
}
