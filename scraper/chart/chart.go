// Package chart draws the concentration history as a line chart
package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/MateoVillarinos/xrprich/scraper"
)

// Sentinel errors
var (
	ErrNoHistory = errors.New("no metric history to plot")
	ErrPlot      = errors.New("building plot failed")
	ErrSave      = errors.New("saving chart failed")
)

// Option configures a Renderer
type Option func(*Renderer)

// WithSize sets the image size
func WithSize(width, height vg.Length) Option {
	return func(r *Renderer) { r.width, r.height = width, height }
}

// WithTitle sets the chart title
func WithTitle(title string) Option {
	return func(r *Renderer) { r.title = title }
}

// Renderer draws one line per cutoff. The output format follows the file
// extension of the target path (png, svg, pdf...).
type Renderer struct {
	title  string
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a Renderer with a 12x6 inch canvas
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		title:  "XRP wealth concentration",
		width:  12 * vg.Inch,
		height: 6 * vg.Inch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements scraper.ChartRenderer
func (r *Renderer) Render(history []scraper.MetricSet, path string) error {
	if len(history) == 0 {
		return ErrNoHistory
	}

	p := plot.New()
	p.Title.Text = r.title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Share of supply (%)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for i, cutoff := range cutoffsOf(history) {
		line, err := plotter.NewLine(series(history, cutoff))
		if err != nil {
			return fmt.Errorf("%w: top %d: %w", ErrPlot, cutoff, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("Top "+strconv.Itoa(cutoff), line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

// cutoffsOf lists the cutoffs present in history in order of first appearance
func cutoffsOf(history []scraper.MetricSet) []int {
	seen := make(map[int]bool)
	var cutoffs []int
	for _, set := range history {
		for _, c := range set.Concentration {
			if !seen[c.Cutoff] {
				seen[c.Cutoff] = true
				cutoffs = append(cutoffs, c.Cutoff)
			}
		}
	}
	return cutoffs
}

// series returns the (unix seconds, pct) points of one cutoff
func series(history []scraper.MetricSet, cutoff int) plotter.XYs {
	pts := make(plotter.XYs, 0, len(history))
	for _, set := range history {
		pct, ok := set.Pct(cutoff)
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(set.Timestamp.Unix()), Y: pct.InexactFloat64()})
	}
	return pts
}
