package bind

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MateoVillarinos/xrprich/web/api"
	"github.com/MateoVillarinos/xrprich/web/rich"
)

// Sentinel errors for request binding
var (
	ErrInvalidYear    = errors.New("invalid year parameter")
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")

	ErrYearNotYYYYFormat = errors.New("year must be exactly 4 digits (YYYY format)")
	ErrYearNotNumeric    = errors.New("year must be numeric")
	ErrYearOutOfRange    = fmt.Errorf("year must be between %d and current year + %d", rich.MinValidYear, rich.MaxAllowedYearsInFuture)

	ErrPageNotNumeric  = errors.New("page must be numeric")
	ErrPageNotPositive = errors.New("page must be positive")

	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")
	ErrPerPageTooLarge    = fmt.Errorf("per_page must be between 1 and %d", rich.MaxPerPage)
)

// GetMetricsRequest binds an HTTP request to MetricsRequest with defaults
func GetMetricsRequest(r *http.Request) (api.MetricsRequest, error) {
	req := api.MetricsRequest{Page: rich.DefaultPage, PerPage: rich.DefaultPerPage}
	query := r.URL.Query()

	if yearParam := query.Get("year"); yearParam != "" {
		year, err := parseYearYYYY(yearParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidYear, err)
		}
		req.Year = year
	}

	page, perPage, err := bindPagination(query)
	if err != nil {
		return req, err
	}
	req.Page, req.PerPage = page, perPage

	return req, nil
}

// GetDeltasRequest binds an HTTP request to DeltasRequest with defaults
func GetDeltasRequest(r *http.Request) (api.DeltasRequest, error) {
	page, perPage, err := bindPagination(r.URL.Query())
	if err != nil {
		return api.DeltasRequest{Page: rich.DefaultPage, PerPage: rich.DefaultPerPage}, err
	}
	return api.DeltasRequest{Page: page, PerPage: perPage}, nil
}

func bindPagination(query url.Values) (uint64, uint64, error) {
	page, perPage := uint64(rich.DefaultPage), uint64(rich.DefaultPerPage)

	if pageParam := query.Get("page"); pageParam != "" {
		p, err := parsePageNumber(pageParam)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		page = p
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		pp, err := parsePerPageLimit(perPageParam)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		perPage = pp
	}

	return page, perPage, nil
}

// parseYearYYYY validates that the year parameter is 4 digits in a range the ledger can have data for
func parseYearYYYY(yearParam string) (uint64, error) {
	if len(yearParam) != 4 {
		return 0, ErrYearNotYYYYFormat
	}

	year, err := strconv.ParseUint(yearParam, 10, 64)
	if err != nil {
		return 0, ErrYearNotNumeric
	}

	if lo, hi := rich.ValidYears(time.Now()); year < lo || year > hi {
		return 0, ErrYearOutOfRange
	}

	return year, nil
}

func parsePageNumber(pageParam string) (uint64, error) {
	page, err := strconv.ParseUint(pageParam, 10, 64)
	if err != nil {
		return 0, ErrPageNotNumeric
	}
	if page == 0 {
		return 0, ErrPageNotPositive
	}
	return page, nil
}

func parsePerPageLimit(perPageParam string) (uint64, error) {
	perPage, err := strconv.ParseUint(perPageParam, 10, 64)
	if err != nil {
		return 0, ErrPerPageNotNumeric
	}
	if perPage == 0 {
		return 0, ErrPerPageNotPositive
	}
	if perPage > rich.MaxPerPage {
		return 0, ErrPerPageTooLarge
	}
	return perPage, nil
}

// GetMetricsResponse binds domain metric points to the API response format
func GetMetricsResponse(points []rich.MetricPoint) api.MetricsResponse {
	data := make([]api.Metric, len(points))
	for i, p := range points {
		conc := make([]api.Concentration, len(p.Concentration))
		for j, c := range p.Concentration {
			conc[j] = api.Concentration{Cutoff: c.Cutoff, Pct: c.Pct.StringFixed(2)}
		}
		data[i] = api.Metric{
			Timestamp:        p.Timestamp.UTC().Format(time.RFC3339),
			Wallets:          p.Wallets,
			TotalLocked:      strconv.FormatUint(p.TotalLocked, 10),
			TotalCirculating: strconv.FormatUint(p.TotalCirculating, 10),
			Concentration:    conc,
		}
	}
	return api.MetricsResponse{Data: data}
}

// GetDeltasResponse binds domain deltas to the API response format
func GetDeltasResponse(page *rich.DeltasPage) api.DeltasResponse {
	data := make([]api.WalletDelta, len(page.Deltas))
	for i, d := range page.Deltas {
		data[i] = api.WalletDelta{
			Wallet:     d.Wallet,
			Owner:      d.Owner,
			OldBalance: formatAmount(d.Old),
			NewBalance: formatAmount(d.New),
			Change:     strconv.FormatInt(d.Change, 10),
		}
	}
	return api.DeltasResponse{Latest: page.Latest, Previous: page.Previous, Data: data}
}

func formatAmount(v *uint64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatUint(*v, 10)
	return &s
}
