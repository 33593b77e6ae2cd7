package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/clauserisk/internal/ingest"
	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/model"
)

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source,omitempty"`
}

// ErrorResponse is returned for every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AnalyzeHandler serves contract analysis requests
type AnalyzeHandler struct {
	analyzer DocumentAnalyzer
	maxBytes int64
	logger   logging.Logger
}

// NewAnalyzeHandler creates the handler; maxBytes <= 0 disables the body limit
func NewAnalyzeHandler(analyzer DocumentAnalyzer, maxBytes int64, logger logging.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, maxBytes: maxBytes, logger: logger}
}

// Analyze handles POST /v1/analyze
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large", Code: "too_large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	// JSON decoding already replaced invalid UTF-8; only NFC is left to apply
	doc, err := h.analyzer.Analyze(c.Request.Context(), source, ingest.Normalize(req.Text))
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("analysis failed", logging.Err(err))
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// classify maps a fatal analysis error to an HTTP status and error code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInputTooShort):
		return http.StatusUnprocessableEntity, "input_too_short"
	case errors.Is(err, model.ErrNoClausesDetected):
		return http.StatusUnprocessableEntity, "no_clauses_detected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
