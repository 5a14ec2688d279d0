// Package xrpscan reads the xrpscan.com balances table with a headless browser
package xrpscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/MateoVillarinos/xrprich/scraper"
)

// Sentinel errors
var (
	ErrNavigate       = errors.New("opening balances page failed")
	ErrRowsTimeout    = errors.New("balance rows did not appear")
	ErrExtract        = errors.New("reading balance rows failed")
	ErrAdvance        = errors.New("advancing to next page failed")
	ErrUnknownAdvance = errors.New("unexpected pagination control state")
)

// Default configuration values
const (
	DefaultURL        = "https://xrpscan.com/balances"
	DefaultRowTimeout = 3 * time.Second

	rowSelector  = "tr[role='row']"
	nextSelector = "button.ml-1.mr-1.btn.btn-outline-info"
)

// Config holds browser session settings
type Config struct {
	URL        string
	Headless   bool
	RowTimeout time.Duration
	ExecPath   string
	UserAgent  string
}

// Browser opens one Chrome session per run. It implements scraper.Browser.
type Browser struct {
	cfg Config
	log *slog.Logger
}

// NewBrowser creates a Browser with defaults applied
func NewBrowser(cfg Config, log *slog.Logger) *Browser {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.RowTimeout <= 0 {
		cfg.RowTimeout = DefaultRowTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Browser{cfg: cfg, log: log}
}

// Open starts Chrome, navigates to the balances page and returns the page
// source together with a closer that shuts the browser down.
func (b *Browser) Open(ctx context.Context) (scraper.PageSource, func(), error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		b.log.Debug(fmt.Sprintf(format, args...))
	}))
	closer := func() {
		cancelTab()
		cancelAlloc()
	}

	if err := chromedp.Run(tabCtx, chromedp.Navigate(b.cfg.URL)); err != nil {
		closer()
		return nil, func() {}, fmt.Errorf("%w: %s: %w", ErrNavigate, b.cfg.URL, err)
	}

	b.log.Debug("Balances page opened", slog.String("url", b.cfg.URL))
	return &Page{tab: tabCtx, rowTimeout: b.cfg.RowTimeout}, closer, nil
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
	)
	if b.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ExecPath))
	}
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	return opts
}

// Page is the currently displayed balances table
type Page struct {
	tab        context.Context
	rowTimeout time.Duration
}

// extractRowsJS returns the cells of every data row. Header rows carry no
// td cells and are dropped.
var extractRowsJS = `Array.from(document.querySelectorAll("` + rowSelector + `"))
  .map(tr => Array.from(tr.querySelectorAll("td")).map(td => {
    const a = td.querySelector("a");
    const money = td.querySelector(".money span");
    return {
      text: td.innerText.trim(),
      link: a ? a.innerText.trim() : null,
      money: money ? money.innerText.trim() : null,
    };
  }))
  .filter(cells => cells.length > 0)`

// clickNextJS clicks the last pagination button when it is enabled
var clickNextJS = `(() => {
  const buttons = document.querySelectorAll("` + nextSelector + `");
  if (buttons.length === 0) return "missing";
  const next = buttons[buttons.length - 1];
  if (next.disabled || next.classList.contains("disabled")) return "disabled";
  next.click();
  return "clicked";
})()`

// CurrentRows waits for the table rows and reads them
func (p *Page) CurrentRows(ctx context.Context) ([]scraper.RawRow, error) {
	waitCtx, cancel := p.callContext(ctx, p.rowTimeout)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(rowSelector, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRowsTimeout, err)
	}

	readCtx, cancelRead := p.callContext(ctx, p.rowTimeout)
	defer cancelRead()
	var rows [][]Cell
	if err := chromedp.Run(readCtx, chromedp.Evaluate(extractRowsJS, &rows)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	return ToRawRows(rows), nil
}

// AdvancePage clicks the next-page control. It reports false when the
// control is missing or disabled.
func (p *Page) AdvancePage(ctx context.Context) (bool, error) {
	callCtx, cancel := p.callContext(ctx, p.rowTimeout)
	defer cancel()

	var outcome string
	if err := chromedp.Run(callCtx, chromedp.Evaluate(clickNextJS, &outcome)); err != nil {
		return false, fmt.Errorf("%w: %w", ErrAdvance, err)
	}
	return ParseAdvance(outcome)
}

// callContext derives an action context from the tab that also ends when
// ctx does. Derived contexts never close the tab itself.
func (p *Page) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithTimeout(p.tab, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// Cell is one table cell as extracted in the browser
type Cell struct {
	Text  string  `json:"text"`
	Link  *string `json:"link"`
	Money *string `json:"money"`
}

// ToRawRows converts extracted cells into parser input
func ToRawRows(rows [][]Cell) []scraper.RawRow {
	out := make([]scraper.RawRow, 0, len(rows))
	for _, cells := range rows {
		row := make(scraper.RawRow, len(cells))
		for i, c := range cells {
			row[i] = scraper.RawCell{
				Text:  strings.TrimSpace(c.Text),
				Link:  trimmed(c.Link),
				Money: trimmed(c.Money),
			}
		}
		out = append(out, row)
	}
	return out
}

// ParseAdvance interprets the outcome reported by the pagination script
func ParseAdvance(outcome string) (bool, error) {
	switch outcome {
	case "clicked":
		return true, nil
	case "missing", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownAdvance, outcome)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
