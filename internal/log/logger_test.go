package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentExpense, Output: &buf})
	l.Info("hello", FieldCount, 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, ComponentExpense, rec[FieldComponent])
	assert.EqualValues(t, 3, rec[FieldCount])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())

	stored := New(DefaultConfig())
	assert.Same(t, stored, FromContext(NewContext(context.Background(), stored)))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf})

	var sawLogger *Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("OK"))
	})
	handler := middleware.RequestID(RequestLogger(base)(next))

	req := httptest.NewRequest(http.MethodGet, "/test-path?x=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, sawLogger)
	assert.Equal(t, ComponentHTTP, sawLogger.Component())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET", entry[FieldMethod])
	assert.Equal(t, "/test-path", entry[FieldPath])
	assert.EqualValues(t, http.StatusTeapot, entry[FieldStatusCode])
	assert.Equal(t, "WARN", entry["level"])
	assert.NotEmpty(t, entry[FieldRequestID])
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	l := base.With(FieldUserID, 7).WithComponent(ComponentHTTP).WithComponent(ComponentExpense)
	l.Info("tagged")

	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, `"`+FieldComponent+`":`), line)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, ComponentExpense, rec[FieldComponent])
	assert.EqualValues(t, 7, rec[FieldUserID])
	assert.Equal(t, ComponentExpense, l.Component())
}

func TestRequestLoggerSingleComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).With(FieldUserID, 1).Info("inside")
	})

	RequestLogger(base)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"`+FieldComponent+`":`), line)
		assert.Contains(t, line, `"`+FieldComponent+`":"`+ComponentHTTP+`"`)
	}
}
