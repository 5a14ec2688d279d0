package scraper

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"time"
)

// Namer decides the artifact names of a run. Every name embeds the run
// timestamp in StampLayout so lexicographic order is chronological order.
type Namer interface {
	SnapshotPrefix() string
	SnapshotName(t time.Time) string
	MetricsName(t time.Time) string
	DeltaName(t time.Time) string
	ChartName(t time.Time) string
}

// PrefixNamer names artifacts as <prefix><stamp><ext>
type PrefixNamer struct {
	Snapshot string
	Metrics  string
	Delta    string
	Chart    string
}

// DefaultNamer is the naming convention used by the binaries
var DefaultNamer = PrefixNamer{
	Snapshot: "xrp_snapshot_",
	Metrics:  "xrp_metrics_",
	Delta:    "xrp_delta_",
	Chart:    "xrp_chart_",
}

func (n PrefixNamer) SnapshotPrefix() string          { return n.Snapshot }
func (n PrefixNamer) SnapshotName(t time.Time) string { return n.Snapshot + Stamp(t) + ".csv" }
func (n PrefixNamer) MetricsName(t time.Time) string  { return n.Metrics + Stamp(t) + ".csv" }
func (n PrefixNamer) DeltaName(t time.Time) string    { return n.Delta + Stamp(t) + ".csv" }
func (n PrefixNamer) ChartName(t time.Time) string    { return n.Chart + Stamp(t) + ".png" }

// Stamp formats t with StampLayout
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// ParseStamp extracts the timestamp embedded at the end of an artifact name
func ParseStamp(name string, loc *time.Location) (time.Time, error) {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if len(base) < len(StampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, name)
	}

	t, err := time.ParseInLocation(StampLayout, base[len(base)-len(StampLayout):], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidTimestamp, name, err)
	}
	return t, nil
}

// LatestSnapshot returns the ref with the greatest name
func LatestSnapshot(refs []SnapshotRef) (SnapshotRef, bool) {
	if len(refs) == 0 {
		return SnapshotRef{}, false
	}
	return slices.MaxFunc(refs, func(a, b SnapshotRef) int {
		return strings.Compare(a.Name, b.Name)
	}), true
}
