package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sbilibin2017/gw-notes/internal/logger"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	original := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = original })
	return logs
}

func TestLoggingMiddleware_RequestAndResponseLines(t *testing.T) {
	logs := observeLogs(t)

	r := chi.NewRouter()
	r.Use(LoggingMiddleware)
	r.Get("/notes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page"))
	})

	req := httptest.NewRequest(http.MethodGet, "/notes?page=2", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "page", rr.Body.String())

	reqID := rr.Header().Get(RequestIDHeader)
	require.NotEmpty(t, reqID)

	entries := logs.All()
	require.Len(t, entries, 2)

	request := entries[0].ContextMap()
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, reqID, request["request_id"])
	assert.Equal(t, http.MethodGet, request["method"])
	assert.Equal(t, "/notes", request["uri"])

	response := entries[1].ContextMap()
	assert.Equal(t, "response", entries[1].Message)
	assert.Equal(t, reqID, response["request_id"])
	assert.EqualValues(t, http.StatusOK, response["status"])
	assert.Equal(t, "4B", response["response_size"])
}

func TestLoggingMiddleware_StatusAndRequestID(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "created", status: http.StatusCreated},
		{name: "redirect", status: http.StatusFound},
		{name: "not found", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeLogs(t)

			var ctxReqID string
			handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxReqID = logger.RequestID(r.Context())
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/add_note", nil))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, rr.Header().Get(RequestIDHeader), ctxReqID)

			responses := logs.FilterMessage("response").All()
			require.Len(t, responses, 1)
			assert.EqualValues(t, tt.status, responses[0].ContextMap()["status"])
		})
	}
}

func TestLoggingMiddleware_UniqueRequestIDs(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEqual(t, first.Header().Get(RequestIDHeader), second.Header().Get(RequestIDHeader))
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := newResponseWriter(rr)

	_, _ = rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, 2, rw.size)
	assert.Same(t, rw, newResponseWriter(rw))
	assert.Same(t, rr, rw.Unwrap())
}
