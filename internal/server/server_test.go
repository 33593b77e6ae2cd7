package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/metrics"
	"github.com/ppiankov/clauserisk/internal/model"
	"github.com/ppiankov/clauserisk/internal/pipeline"
)

const contract = "Section 1. The Buyer shall assign all intellectual property to the Seller. " +
	"Section 2. This license is exclusive and shall continue in perpetuity."

type stubAnalyzer struct {
	err    error
	source string
	text   string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, source, text string) (*model.Document, error) {
	s.source = source
	s.text = text
	if s.err != nil {
		return nil, s.err
	}
	return &model.Document{ID: "doc-1", Source: source, Status: model.StatusOK}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAnalyze_EndToEnd(t *testing.T) {
	p, err := pipeline.NewPipeline(model.DefaultConfig())
	require.NoError(t, err)
	srv := New(model.DefaultConfig().Server, p, nil, nil)

	body, err := json.Marshal(AnalyzeRequest{Text: contract, Source: "upload.txt"})
	require.NoError(t, err)
	w := postJSON(t, srv.Handler(), string(body))

	require.Equal(t, http.StatusOK, w.Code)
	var doc model.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "upload.txt", doc.Source)
	assert.Equal(t, 48, doc.CompositeScore)
	assert.Equal(t, model.BandMedium, doc.Band)
	require.Len(t, doc.Clauses, 2)
	assert.Equal(t, 70, doc.Clauses[0].Assessment.Score)
	assert.Equal(t, model.StatusDegraded, doc.Status)
}

func TestAnalyze_DefaultSource(t *testing.T) {
	stub := &stubAnalyzer{}
	srv := New(model.ServerConfig{}, stub, nil, nil)

	w := postJSON(t, srv.Handler(), `{"text":"anything"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "api", stub.source)
}

func TestAnalyze_NormalizesText(t *testing.T) {
	stub := &stubAnalyzer{}
	srv := New(model.ServerConfig{}, stub, nil, nil)

	// "e" followed by a combining acute accent composes to U+00E9
	w := postJSON(t, srv.Handler(), `{"text":"The Cafe\u0301 shall pay within 30 days."}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "The Caf\u00e9 shall pay within 30 days.", stub.text)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{"input too short", model.ErrInputTooShort, `{"text":"short"}`, http.StatusUnprocessableEntity, "input_too_short"},
		{"no clauses", model.ErrNoClausesDetected, `{"text":"x"}`, http.StatusUnprocessableEntity, "no_clauses_detected"},
		{"cancelled", context.Canceled, `{"text":"x"}`, http.StatusServiceUnavailable, "cancelled"},
		{"internal", errors.New("boom"), `{"text":"x"}`, http.StatusInternalServerError, "internal"},
		{"malformed body", nil, `{`, http.StatusBadRequest, "invalid_request"},
		{"missing text", nil, `{"source":"a"}`, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(model.ServerConfig{}, &stubAnalyzer{err: tt.err}, nil, nil)

			w := postJSON(t, srv.Handler(), tt.body)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAnalyze_RealFatalErrorIs422(t *testing.T) {
	p, err := pipeline.NewPipeline(model.DefaultConfig())
	require.NoError(t, err)
	srv := New(model.ServerConfig{}, p, nil, nil)

	w := postJSON(t, srv.Handler(), `{"text":"Section 1. Too short."}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "input_too_short")
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	srv := New(model.ServerConfig{MaxBodyBytes: 64}, &stubAnalyzer{}, nil, nil)

	w := postJSON(t, srv.Handler(), `{"text":"`+strings.Repeat("a", 200)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealthz(t *testing.T) {
	srv := New(model.ServerConfig{}, &stubAnalyzer{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.NewPrometheusRecorder("clauserisk")
	p, err := pipeline.NewPipeline(model.DefaultConfig(), pipeline.WithRecorder(rec))
	require.NoError(t, err)
	srv := New(model.ServerConfig{}, p, rec.Handler(), nil)

	body, err := json.Marshal(AnalyzeRequest{Text: contract})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, postJSON(t, srv.Handler(), string(body)).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `clauserisk_analyses_total{status="degraded"} 1`)
	assert.Contains(t, w.Body.String(), `clauserisk_clauses_total{band="High"} 1`)
}

func TestMetricsEndpoint_Omitted(t *testing.T) {
	srv := New(model.ServerConfig{}, &stubAnalyzer{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv := New(model.ServerConfig{Addr: "127.0.0.1:0"}, &stubAnalyzer{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
