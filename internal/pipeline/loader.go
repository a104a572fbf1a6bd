package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
)

// ProgressFunc is called as each metric forecast completes.
// current is the number of metrics finished so far, total is the total count.
type ProgressFunc func(current, total int)

// Metrics are the record columns forecast for the dashboard, in merge order.
var Metrics = []forecast.Metric{forecast.MetricSales, forecast.MetricCustomers}

type metricResult struct {
	points []model.Point
	err    error
}

// ForecastMetrics fits and projects each metric independently using a
// bounded worker pool. The first error in metric order is returned.
func ForecastMetrics(req *forecast.Requester, records []model.DailyRecord, metrics []forecast.Metric, horizon int, progressFn ProgressFunc) (map[forecast.Metric][]model.Point, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 2
	}
	if numWorkers > len(metrics) {
		numWorkers = len(metrics)
	}

	work := make(chan int, len(metrics))
	results := make([]metricResult, len(metrics))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range metrics {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				m := metrics[idx]
				pts, err := req.Forecast(forecast.SeriesOf(records, m), horizon)
				if err != nil {
					err = &forecast.FitError{Metric: string(m), Err: unwrapFit(err)}
				}
				results[idx] = metricResult{points: pts, err: err}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(metrics))
				}
			}
		}()
	}

	wg.Wait()

	out := make(map[forecast.Metric][]model.Point, len(metrics))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[metrics[i]] = r.points
	}
	return out, nil
}

func unwrapFit(err error) error {
	if fe, ok := err.(*forecast.FitError); ok {
		return fe.Err
	}
	return err
}
