package ingest

import (
	"path/filepath"
	"strings"
)

// Extractor turns raw document bytes of one format into plain text
type Extractor interface {
	// Name returns the format name
	Name() string

	// CanHandle checks if this extractor understands the named input
	CanHandle(name string, contentType string) bool

	// Extract returns the document text
	Extract(raw []byte) (string, error)
}

// Registry manages format extractors
type Registry struct {
	extractors []Extractor
	fallback   Extractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewHTMLExtractor())
	r.Register(NewDOCXExtractor())
	r.fallback = NewTextExtractor()
	return r
}

// Register registers a new extractor ahead of the fallback
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Find returns the first extractor that handles the input, or plain text
func (r *Registry) Find(name string, contentType string) Extractor {
	for _, e := range r.extractors {
		if e.CanHandle(name, contentType) {
			return e
		}
	}
	return r.fallback
}

// TextExtractor handles .txt, .md and anything unrecognised
type TextExtractor struct{}

// NewTextExtractor creates a plain-text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Name returns the format name
func (e *TextExtractor) Name() string {
	return "text"
}

// CanHandle accepts text files and text/plain responses
func (e *TextExtractor) CanHandle(name string, contentType string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), "text/plain")
}

// Extract returns the bytes as text
func (e *TextExtractor) Extract(raw []byte) (string, error) {
	return string(raw), nil
}
