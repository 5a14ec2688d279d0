package httpkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPError interface for HTTP-aware errors with detailed causes
type HTTPError interface {
	HTTPCode() int
	Cause() error
	error
}

// Header constants
const (
	contentTypeHeader  = "Content-Type"
	contentTypeOptions = "X-Content-Type-Options"
	linkHeader         = "Link"
)

var (
	jsonContentType           = []string{"application/json; charset=utf-8"}
	nosniffContentTypeOptions = []string{"nosniff"}
)

func addHeaderIfNotSet(w http.ResponseWriter, key string, value []string) {
	header := w.Header()
	if val := header[key]; len(val) == 0 {
		header[key] = value
	}
}

// Context helpers for request-scoped error tracking
type ctxKeyError struct{}

type errorHolder struct {
	err error
}

// WithErrorTracking creates context with error tracking capability, or returns existing context if already present
func WithErrorTracking(ctx context.Context) context.Context {
	if _, ok := ctx.Value(ctxKeyError{}).(*errorHolder); ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyError{}, &errorHolder{})
}

// SetError sets error in the context
func SetError(ctx context.Context, err error) {
	if holder, ok := ctx.Value(ctxKeyError{}).(*errorHolder); ok {
		holder.err = err
	}
}

// Error gets error from context
func Error(ctx context.Context) error {
	if holder, ok := ctx.Value(ctxKeyError{}).(*errorHolder); ok {
		return holder.err
	}
	return nil
}

// HandlerFunc returns the handler that renders the response, or nil when
// the response has already been written.
type HandlerFunc func(http.ResponseWriter, *http.Request) http.HandlerFunc

func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(WithErrorTracking(r.Context()))

	if handler := h(w, r); handler != nil {
		handler(w, r)
	}
}

// JSON creates a handler that returns JSON response
func JSON(data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addHeaderIfNotSet(w, contentTypeHeader, jsonContentType)
		addHeaderIfNotSet(w, contentTypeOptions, nosniffContentTypeOptions)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(data)
	}
}

// JsonError creates a handler that sets an error in context and writes the error response
func JsonError(err HTTPError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetError(r.Context(), err)

		addHeaderIfNotSet(w, contentTypeHeader, jsonContentType)
		addHeaderIfNotSet(w, contentTypeOptions, nosniffContentTypeOptions)

		w.WriteHeader(err.HTTPCode())
		_ = json.NewEncoder(w).Encode(err)
	}
}

// Pager describes a page of results that knows its neighbours
type Pager interface {
	PageNumber() int
	PageSize() int
	HasPrevious() bool
	HasNext() bool
}

// SetPaginationLinks sets a GitHub-style Link header with prev/next relations.
// The other query parameters of base are preserved. No header is set when
// there is nowhere to navigate to.
func SetPaginationLinks(w http.ResponseWriter, base *url.URL, p Pager) {
	if links := PaginationLinks(base, p); links != "" {
		w.Header().Set(linkHeader, links)
	}
}

// PaginationLinks renders the Link header value for p.
// first/last are omitted: last would need a count(*) per request.
func PaginationLinks(base *url.URL, p Pager) string {
	var links []string

	if p.HasPrevious() {
		links = append(links, pageLink(base, p.PageNumber()-1, p.PageSize(), "prev"))
	}
	if p.HasNext() {
		links = append(links, pageLink(base, p.PageNumber()+1, p.PageSize(), "next"))
	}

	return strings.Join(links, ", ")
}

func pageLink(base *url.URL, number, size int, rel string) string {
	u := *base
	query := u.Query()
	query.Set("page", strconv.Itoa(number))
	query.Set("per_page", strconv.Itoa(size))
	u.RawQuery = query.Encode()
	return fmt.Sprintf(`<%s>; rel="%s"`, u.String(), rel)
}
