package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salescast/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as one row of block characters scaled to the
// series range.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := span(values)
	if hi == lo {
		hi = lo + 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// axis is a y scale with round tick values.
type axis struct {
	step      float64
	ceiling   float64
	intervals int
	rowsPer   int
}

func (ax axis) rows() int { return ax.rowsPer * ax.intervals }

// niceAxis fits a tick scale over [0, maxVal] into about height rows.
func niceAxis(maxVal float64, height int) axis {
	if maxVal <= 0 {
		maxVal = 1
	}
	step := chartTickStep(maxVal)
	limit := max(2, height/2)
	for int(math.Ceil(maxVal/step)) > limit {
		step *= 2
	}
	ceiling := math.Ceil(maxVal/step) * step
	intervals := max(1, int(math.Round(ceiling/step)))
	return axis{
		step:      step,
		ceiling:   ceiling,
		intervals: intervals,
		rowsPer:   max(2, height/intervals),
	}
}

func (ax axis) labelWidth() int {
	return max(4, len(formatChartLabel(ax.ceiling))+1)
}

// label returns the tick label for a chart row, or "" between ticks.
func (ax axis) label(row int) string {
	if row%ax.rowsPer != 0 {
		return ""
	}
	return formatChartLabel(ax.step * float64(row/ax.rowsPer))
}

// sampleBars thins values to at most maxN evenly spaced entries.
func sampleBars(values []float64, labels []string, maxN int) ([]float64, []string) {
	n := len(values)
	if n <= maxN || maxN < 2 {
		return values, labels
	}
	out := make([]float64, maxN)
	var outLabels []string
	if len(labels) == n {
		outLabels = make([]string, maxN)
	}
	for i := range out {
		src := i * (n - 1) / (maxN - 1)
		out[i] = values[src]
		if outLabels != nil {
			outLabels[i] = labels[src]
		}
	}
	return out, outLabels
}

// BarChart renders vertical bars with a labelled y axis. Bars shade from
// color toward the accent as they rise.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	ax := niceAxis(peak, height)
	labelW := ax.labelWidth()
	plotW := max(5, width-labelW-1)

	n := len(values)
	barW, gap := plotW, 0
	if n > 1 {
		gap = 1
		barW = (plotW - (n - 1)) / n
		if barW < 2 {
			values, labels = sampleBars(values, labels, max(2, (plotW+1)/3))
			n = len(values)
			barW = 2
		}
	}
	barW = min(barW, 6)
	axisLen := n*barW + max(0, n-1)*gap

	partial := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	chartH := ax.rows()
	for row := chartH; row >= 1; row-- {
		top := ax.ceiling * float64(row) / float64(chartH)
		bottom := ax.ceiling * float64(row-1) / float64(chartH)

		barColor := color
		if float64(row)/float64(chartH) > 0.8 {
			barColor = t.AccentBright
		}
		barStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", labelW, ax.label(row))))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * 8)
				idx = max(1, min(idx, 8))
				b.WriteString(barStyle.Render(strings.Repeat(string(partial[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", labelW, "0", strings.Repeat("─", axisLen))))
	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(xLabels(labels, barW+gap, axisLen), " ")))
	}
	return b.String()
}

// xLabels places labels under their columns, skipping any that would
// collide with the previous one. The last label is always attempted.
func xLabels(labels []string, stride, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	lastEnd := -1
	place := func(pos int, lbl string) {
		r := []rune(lbl)
		if pos+len(r) > axisLen {
			pos = axisLen - len(r)
		}
		if pos < 0 || pos <= lastEnd {
			return
		}
		copy(buf[pos:], r)
		lastEnd = pos + len(r)
	}
	n := len(labels)
	step := max(1, (n*8)/(axisLen+1))
	for i := 0; i < n-1; i += step {
		place(i*stride, labels[i])
	}
	if n > 0 {
		place((n-1)*stride, labels[n-1])
	}
	return string(buf)
}

// Series is one line of a LineChart.
type Series struct {
	Name   string
	Values []float64
	Color  lipgloss.Color
	Format func(float64) string
}

// LineChart plots each series over the same x positions. Each series is
// scaled to its own range so metrics of different magnitude share the plot;
// the legend shows every range.
func LineChart(series []Series, labels []string, width, height int) string {
	if len(series) == 0 || width < 10 || height < 3 {
		return ""
	}
	t := theme.Active
	n := 0
	for _, s := range series {
		n = max(n, len(s.Values))
	}
	if n == 0 {
		return ""
	}

	plotW := width - 1
	grid := make([][]rune, height)
	owner := make([][]int, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", plotW))
		owner[r] = make([]int, plotW)
	}

	markers := []rune{'●', '◆', '▲', '■'}
	for si, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		lo, hi := span(s.Values)
		prevRow := -1
		for c := 0; c < plotW; c++ {
			v := interpolate(s.Values, c, plotW)
			row := height / 2
			if hi > lo {
				row = height - 1 - int(math.Round((v-lo)/(hi-lo)*float64(height-1)))
			}
			ch := '·'
			if isSample(c, plotW, len(s.Values)) {
				ch = markers[si%len(markers)]
			}
			grid[row][c] = ch
			owner[row][c] = si
			// Fill vertical jumps so the line reads as connected.
			if prevRow >= 0 && abs(row-prevRow) > 1 {
				step := 1
				if row < prevRow {
					step = -1
				}
				for r := prevRow + step; r != row; r += step {
					if grid[r][c] == ' ' {
						grid[r][c] = '│'
						owner[r][c] = si
					}
				}
			}
			prevRow = row
		}
	}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	styles := make([]lipgloss.Style, len(series))
	for i, s := range series {
		styles[i] = lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface)
	}

	var b strings.Builder
	for r := range grid {
		b.WriteString(axisStyle.Render("│"))
		for c, ch := range grid[r] {
			if ch == ' ' {
				b.WriteString(blank.Render(" "))
				continue
			}
			b.WriteString(styles[owner[r][c]].Render(string(ch)))
		}
		b.WriteString("\n")
	}
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", plotW)))

	if len(labels) == n && n > 0 {
		stride := 0
		if n > 1 {
			stride = (plotW - 1) / (n - 1)
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(" "))
		b.WriteString(axisStyle.Render(strings.TrimRight(xLabels(labels, max(stride, 1), plotW), " ")))
	}

	b.WriteString("\n")
	for i, s := range series {
		if i > 0 {
			b.WriteString(blank.Render("   "))
		}
		lo, hi := span(s.Values)
		format := s.Format
		if format == nil {
			format = formatChartLabel
		}
		b.WriteString(styles[i].Render(fmt.Sprintf("%c %s", markers[i%len(markers)], s.Name)))
		b.WriteString(axisStyle.Render(fmt.Sprintf(" %s–%s", format(lo), format(hi))))
	}
	return b.String()
}

// interpolate returns the series value at plot column c of w columns.
func interpolate(values []float64, c, w int) float64 {
	n := len(values)
	if n == 1 || w <= 1 {
		return values[0]
	}
	pos := float64(c) * float64(n-1) / float64(w-1)
	i := int(pos)
	if i >= n-1 {
		return values[n-1]
	}
	frac := pos - float64(i)
	return values[i] + (values[i+1]-values[i])*frac
}

// isSample reports whether column c lands on a data point.
func isSample(c, w, n int) bool {
	if n <= 1 || w <= 1 {
		return c == 0
	}
	for i := 0; i < n; i++ {
		if int(math.Round(float64(i)*float64(w-1)/float64(n-1))) == c {
			return true
		}
	}
	return false
}

func span(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// chartTickStep picks a 1/2/5 tick interval giving roughly five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	scaled := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e6:
		return scaled(1e6, "M")
	case v >= 1e3:
		return scaled(1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
