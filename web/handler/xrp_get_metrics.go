package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MateoVillarinos/xrprich/pkg/httpkit"
	"github.com/MateoVillarinos/xrprich/web/api"
	"github.com/MateoVillarinos/xrprich/web/handler/bind"
	"github.com/MateoVillarinos/xrprich/web/rich"
)

const GetMetricsRoute = http.MethodGet + " " + "/xrp/metrics"

// Sentinel errors
var (
	ErrMetricsQueryFailed = errors.New("failed to query metrics")
)

// XRPGetMetrics serves the concentration history, newest run first
type XRPGetMetrics struct {
	finder rich.MetricsFinder
}

func NewXRPGetMetrics(finder rich.MetricsFinder) *XRPGetMetrics {
	return &XRPGetMetrics{finder: finder}
}

func (h *XRPGetMetrics) AddRoutes(m *http.ServeMux) {
	m.Handle(GetMetricsRoute, httpkit.HandlerFunc(h.GetMetrics))
}

func (h *XRPGetMetrics) GetMetrics(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetMetricsRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	criteria, err := rich.NewMetricsCriteria(req.Year, req.Page, req.PerPage)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	page, err := h.finder.FindMetrics(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrMetricsQueryFailed, err)))
	}

	httpkit.SetPaginationLinks(w, r.URL, page.PageInfo)
	return httpkit.JSON(bind.GetMetricsResponse(page.Points))
}
