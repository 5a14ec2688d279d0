// Package csvstore keeps snapshots, metric history and delta reports as CSV
// files in a single local directory.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MateoVillarinos/xrprich/scraper"
)

// Sentinel errors for store operations
var (
	ErrDirectory   = errors.New("data directory unavailable")
	ErrWriteFile   = errors.New("csv write failed")
	ErrReadFile    = errors.New("csv read failed")
	ErrBadHeader   = errors.New("unexpected csv header")
	ErrBadRecord   = errors.New("malformed csv record")
	ErrUnsafeName  = errors.New("file name escapes data directory")
	ErrListEntries = errors.New("listing data directory failed")
)

var (
	snapshotHeader = []string{"Rank", "Wallet", "Owner", "Balance", "XRP Locked", "Percentage"}
	deltaHeader    = []string{"Wallet", "Owner", "Old Balance", "New Balance", "Balance Change"}
)

const timestampColumn = "Timestamp"

// Option configures the Store
type Option func(*Store)

// WithNamer sets the naming convention used to find metric files
func WithNamer(n scraper.PrefixNamer) Option {
	return func(s *Store) { s.namer = n }
}

// WithLocation sets the time zone the embedded stamps are read in
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// Store implements scraper.Store and scraper.DeltaReporter on a directory
type Store struct {
	dir   string
	namer scraper.PrefixNamer
	loc   *time.Location
}

// New creates the directory if needed and returns a Store rooted at it
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	s := &Store{dir: dir, namer: scraper.DefaultNamer, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory the store writes into
func (s *Store) Dir() string {
	return s.dir
}

// ListSnapshots returns the CSV files whose name starts with prefix
func (s *Store) ListSnapshots(_ context.Context, prefix string) ([]scraper.SnapshotRef, error) {
	names, err := s.list(prefix)
	if err != nil {
		return nil, err
	}

	refs := make([]scraper.SnapshotRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, scraper.SnapshotRef{ID: name, Name: name})
	}
	return refs, nil
}

// ReadSnapshot loads the snapshot stored under id. The timestamp comes from
// the stamp embedded in the file name.
func (s *Store) ReadSnapshot(_ context.Context, id string) (scraper.Snapshot, error) {
	ts, err := scraper.ParseStamp(id, s.loc)
	if err != nil {
		return scraper.Snapshot{}, err
	}

	rows, err := s.readCSV(id)
	if err != nil {
		return scraper.Snapshot{}, err
	}
	// files written before the percentage column existed are still readable
	if len(rows) == 0 || !hasColumns(rows[0], snapshotHeader[:len(snapshotHeader)-1]) {
		return scraper.Snapshot{}, fmt.Errorf("%w: %s", ErrBadHeader, id)
	}

	records := make([]scraper.WalletRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := decodeRecord(row)
		if err != nil {
			return scraper.Snapshot{}, fmt.Errorf("%w: %s line %d: %w", ErrBadRecord, id, i+2, err)
		}
		records = append(records, rec)
	}

	return scraper.Snapshot{Timestamp: ts, Records: records}, nil
}

// WriteSnapshot stores snap under name, replacing any previous file
func (s *Store) WriteSnapshot(_ context.Context, snap scraper.Snapshot, name string) error {
	rows := make([][]string, 0, len(snap.Records)+1)
	rows = append(rows, snapshotHeader)
	for _, r := range snap.Records {
		rows = append(rows, encodeRecord(r))
	}
	_, err := s.writeCSV(name, rows)
	return err
}

// WriteMetrics stores the concentration metrics of one run as a single row
func (s *Store) WriteMetrics(_ context.Context, summary scraper.Summary, name string) error {
	m := summary.Metrics
	header := []string{timestampColumn}
	row := []string{scraper.Stamp(m.Timestamp.In(s.loc))}
	for _, c := range m.Concentration {
		header = append(header, metricColumn(c.Cutoff))
		row = append(row, c.Pct.StringFixed(2))
	}

	_, err := s.writeCSV(name, [][]string{header, row})
	return err
}

// MetricsHistory concatenates every metrics file, oldest first
func (s *Store) MetricsHistory(_ context.Context) ([]scraper.MetricSet, error) {
	names, err := s.list(s.namer.Metrics)
	if err != nil {
		return nil, err
	}

	var history []scraper.MetricSet
	for _, name := range names {
		rows, err := s.readCSV(name)
		if err != nil {
			return nil, err
		}
		sets, err := decodeMetrics(rows, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadRecord, name, err)
		}
		history = append(history, sets...)
	}

	slices.SortStableFunc(history, func(a, b scraper.MetricSet) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return history, nil
}

// WriteDeltaReport stores the wallet deltas and returns the file path
func (s *Store) WriteDeltaReport(_ context.Context, deltas []scraper.WalletDelta, name string) (string, error) {
	rows := make([][]string, 0, len(deltas)+1)
	rows = append(rows, deltaHeader)
	for _, d := range deltas {
		rows = append(rows, []string{
			d.Wallet,
			d.Owner,
			optionalAmount(d.Old),
			optionalAmount(d.New),
			strconv.FormatInt(d.Change, 10),
		})
	}
	return s.writeCSV(name, rows)
}

func (s *Store) list(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListEntries, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ".csv" {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) readCSV(name string) ([][]string, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadFile, name, err)
	}
	return rows, nil
}

// writeCSV writes rows to a temporary file and renames it into place so
// readers never see a partial file
func (s *Store) writeCSV(name string, rows [][]string) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFile, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %s: %w", ErrWriteFile, name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWriteFile, name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWriteFile, name, err)
	}

	return path, nil
}

func encodeRecord(r scraper.WalletRecord) []string {
	pct := ""
	if r.Percentage != nil {
		pct = strconv.FormatFloat(*r.Percentage, 'f', 2, 64)
	}
	return []string{
		strconv.Itoa(r.Rank),
		r.Wallet,
		r.Owner,
		strconv.FormatUint(r.Balance, 10),
		strconv.FormatUint(r.Locked, 10),
		pct,
	}
}

func decodeRecord(row []string) (scraper.WalletRecord, error) {
	if len(row) < len(snapshotHeader)-1 {
		return scraper.WalletRecord{}, fmt.Errorf("%d fields", len(row))
	}

	rank, err := strconv.Atoi(row[0])
	if err != nil {
		return scraper.WalletRecord{}, fmt.Errorf("rank: %w", err)
	}
	balance, err := strconv.ParseUint(row[3], 10, 64)
	if err != nil {
		return scraper.WalletRecord{}, fmt.Errorf("balance: %w", err)
	}
	locked, err := strconv.ParseUint(row[4], 10, 64)
	if err != nil {
		return scraper.WalletRecord{}, fmt.Errorf("locked: %w", err)
	}

	rec := scraper.WalletRecord{
		Rank:    rank,
		Wallet:  row[1],
		Owner:   row[2],
		Balance: balance,
		Locked:  locked,
	}
	if len(row) > 5 && row[5] != "" {
		pct, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return scraper.WalletRecord{}, fmt.Errorf("percentage: %w", err)
		}
		rec.Percentage = &pct
	}
	return rec, nil
}

func decodeMetrics(rows [][]string, loc *time.Location) ([]scraper.MetricSet, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	if len(header) == 0 || header[0] != timestampColumn {
		return nil, ErrBadHeader
	}

	cutoffs := make([]int, len(header)-1)
	for i, col := range header[1:] {
		k, ok := parseMetricColumn(col)
		if !ok {
			return nil, fmt.Errorf("%w: column %q", ErrBadHeader, col)
		}
		cutoffs[i] = k
	}

	sets := make([]scraper.MetricSet, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%d fields, want %d", len(row), len(header))
		}

		ts, err := time.ParseInLocation(scraper.StampLayout, row[0], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", scraper.ErrInvalidTimestamp, err)
		}

		m := scraper.MetricSet{Timestamp: ts, Concentration: make([]scraper.Concentration, 0, len(cutoffs))}
		for i, k := range cutoffs {
			pct, err := decimal.NewFromString(row[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", header[i+1], err)
			}
			m.Concentration = append(m.Concentration, scraper.Concentration{Cutoff: k, Pct: pct})
		}
		sets = append(sets, m)
	}
	return sets, nil
}

func hasColumns(header, want []string) bool {
	return len(header) >= len(want) && slices.Equal(header[:len(want)], want)
}

func metricColumn(cutoff int) string {
	return "Top" + strconv.Itoa(cutoff) + "Pct"
}

func parseMetricColumn(col string) (int, bool) {
	digits, ok := strings.CutPrefix(col, "Top")
	if !ok {
		return 0, false
	}
	digits, ok = strings.CutSuffix(digits, "Pct")
	if !ok {
		return 0, false
	}
	k, err := strconv.Atoi(digits)
	return k, err == nil && k > 0
}

func optionalAmount(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}
