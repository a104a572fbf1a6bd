package server

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
)

const (
	chartWidth  = 640
	chartHeight = 220
	chartPad    = 28
)

type chartSeries struct {
	name   string
	class  string
	values []float64
	format func(float64) string
}

// forecastChart draws both forecast series as SVG polylines. Each series
// is scaled to its own range since sales and customers differ by orders of
// magnitude; the legend carries the range.
func forecastChart(rows []model.ForecastRow) template.HTML {
	if len(rows) == 0 {
		return ""
	}
	sales := make([]float64, len(rows))
	customers := make([]float64, len(rows))
	for i, r := range rows {
		sales[i] = r.SalesForecast
		customers[i] = r.CustomersForecast
	}
	series := []chartSeries{
		{name: "Sales", class: "sales", values: sales, format: cli.FormatMoneyFloat},
		{name: "Customers", class: "customers", values: customers, format: func(f float64) string { return cli.FormatFloat(f, 1) }},
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="chart" viewBox="0 0 %d %d" role="img" aria-label="Forecast chart">`, chartWidth, chartHeight)
	fmt.Fprintf(&b, `<line class="axis" x1="%d" y1="%d" x2="%d" y2="%d"/>`,
		chartPad, chartHeight-chartPad, chartWidth-chartPad, chartHeight-chartPad)

	for i, r := range rows {
		x := chartX(i, len(rows))
		fmt.Fprintf(&b, `<text class="tick" x="%.1f" y="%d" text-anchor="middle">%s</text>`,
			x, chartHeight-chartPad/3, template.HTMLEscapeString(r.Date.Format("Jan 2")))
	}

	for si, s := range series {
		lo, hi := bounds(s.values)
		points := make([]string, len(s.values))
		for i, v := range s.values {
			points[i] = fmt.Sprintf("%.1f,%.1f", chartX(i, len(s.values)), chartY(v, lo, hi))
		}
		fmt.Fprintf(&b, `<polyline class="series %s" fill="none" points="%s"/>`, s.class, strings.Join(points, " "))
		fmt.Fprintf(&b, `<text class="legend %s" x="%d" y="%d">%s %s to %s</text>`,
			s.class, chartPad, 14+si*14, s.name,
			template.HTMLEscapeString(s.format(lo)), template.HTMLEscapeString(s.format(hi)))
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String()) //nolint:gosec // numeric output and escaped labels only
}

func chartX(i, n int) float64 {
	if n <= 1 {
		return float64(chartWidth) / 2
	}
	span := float64(chartWidth - 2*chartPad)
	return float64(chartPad) + span*float64(i)/float64(n-1)
}

func chartY(v, lo, hi float64) float64 {
	top := float64(chartPad + 20)
	bottom := float64(chartHeight - chartPad)
	if hi == lo {
		return (top + bottom) / 2
	}
	return bottom - (v-lo)/(hi-lo)*(bottom-top)
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
