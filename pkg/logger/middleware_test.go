package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateoVillarinos/xrprich/pkg/httpkit"
	"github.com/MateoVillarinos/xrprich/pkg/logger"
)

// apiError implements httpkit.HTTPError with a public message that differs from its cause
type apiError struct {
	cause error
	code  int
}

func (e apiError) Error() string { return http.StatusText(e.code) }
func (e apiError) HTTPCode() int { return e.code }
func (e apiError) Cause() error  { return e.cause }

type accessLine struct {
	Level    string  `json:"level"`
	Msg      string  `json:"msg"`
	Method   string  `json:"method"`
	URI      string  `json:"uri"`
	Status   int     `json:"status"`
	Duration float64 `json:"duration"`
	BytesIn  int     `json:"bytes_in"`
	BytesOut int     `json:"bytes_out"`
	Error    string  `json:"error"`
}

func TestNewMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    string
		handler   http.HandlerFunc
		wantLevel string
		wantCode  int
		wantError string
	}{
		{
			name:   "it logs served pages at info",
			target: "/xrp/deltas?page=2",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			},
			wantLevel: "INFO",
			wantCode:  http.StatusOK,
		},
		{
			name:   "it logs rejected parameters at warn with the cause",
			target: "/xrp/metrics?year=20x5",
			handler: httpkit.HandlerFunc(func(http.ResponseWriter, *http.Request) http.HandlerFunc {
				return httpkit.JsonError(apiError{cause: errors.New("invalid year parameter: year must be numeric"), code: http.StatusBadRequest})
			}).ServeHTTP,
			wantLevel: "WARN",
			wantCode:  http.StatusBadRequest,
			wantError: "invalid year parameter: year must be numeric",
		},
		{
			name:   "it logs query failures at error with the hidden cause",
			target: "/xrp/metrics",
			handler: httpkit.HandlerFunc(func(http.ResponseWriter, *http.Request) http.HandlerFunc {
				return httpkit.JsonError(apiError{cause: errors.New("failed to query metrics: connection refused"), code: http.StatusInternalServerError})
			}).ServeHTTP,
			wantLevel: "ERROR",
			wantCode:  http.StatusInternalServerError,
			wantError: "failed to query metrics: connection refused",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			var buf bytes.Buffer
			h := logger.NewMiddleware(jsonLogger(&buf))(tc.handler)
			rec := httptest.NewRecorder()

			// Act
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			// Assert
			line := lastLine(t, &buf)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantLevel, line.Level)
			assert.Equal(t, "HTTP", line.Msg)
			assert.Equal(t, http.MethodGet, line.Method)
			assert.Equal(t, tc.target, line.URI)
			assert.Equal(t, tc.wantCode, line.Status)
			assert.Equal(t, rec.Body.Len(), line.BytesOut)
			assert.Equal(t, tc.wantError, line.Error)
		})
	}

	t.Run("it measures the handler duration", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		h := logger.NewMiddleware(jsonLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			time.Sleep(10 * time.Millisecond)
		}))

		// Act
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/xrp/metrics", nil))

		// Assert
		assert.GreaterOrEqual(t, lastLine(t, &buf).Duration, float64(10*time.Millisecond))
	})

	t.Run("it counts request body bytes", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		body := `{"page":1}`
		h := logger.NewMiddleware(jsonLogger(&buf))(http.NotFoundHandler())

		// Act
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/xrp/metrics", strings.NewReader(body)))

		// Assert
		line := lastLine(t, &buf)
		assert.Equal(t, len(body), line.BytesIn)
		assert.Equal(t, "WARN", line.Level)
		assert.Empty(t, line.Error, "plain handlers record no error")
	})
}

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func lastLine(t *testing.T, buf *bytes.Buffer) accessLine {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var line accessLine
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &line))
	return line
}
