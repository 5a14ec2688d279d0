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

const GetDeltasRoute = http.MethodGet + " " + "/xrp/deltas"

// Sentinel errors
var (
	ErrDeltasQueryFailed = errors.New("failed to query wallet deltas")
)

// XRPGetDeltas serves the wallet deltas between the two latest snapshots
type XRPGetDeltas struct {
	finder rich.DeltasFinder
}

func NewXRPGetDeltas(finder rich.DeltasFinder) *XRPGetDeltas {
	return &XRPGetDeltas{finder: finder}
}

func (h *XRPGetDeltas) AddRoutes(m *http.ServeMux) {
	m.Handle(GetDeltasRoute, httpkit.HandlerFunc(h.GetDeltas))
}

func (h *XRPGetDeltas) GetDeltas(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetDeltasRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	criteria, err := rich.NewDeltasCriteria(req.Page, req.PerPage)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	page, err := h.finder.FindDeltas(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrDeltasQueryFailed, err)))
	}

	httpkit.SetPaginationLinks(w, r.URL, page.PageInfo)
	return httpkit.JSON(bind.GetDeltasResponse(page))
}
