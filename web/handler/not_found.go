package handler

import (
	"fmt"
	"net/http"

	"github.com/MateoVillarinos/xrprich/pkg/httpkit"
	"github.com/MateoVillarinos/xrprich/web/api"
)

// AddNotFound answers unmatched paths with a JSON 404
func AddNotFound(m *http.ServeMux) {
	m.Handle("/", httpkit.HandlerFunc(func(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
		return httpkit.JsonError(api.NotFound(fmt.Errorf("%w: %s %s", api.ErrNotFound, r.Method, r.URL.Path)))
	}))
}
