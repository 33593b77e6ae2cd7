// Package ingest turns contract inputs (files, URLs, stdin) into Unicode
// text ready for analysis. It is the only place raw bytes are decoded.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/model"
)

// Loading errors
var (
	ErrTooLarge          = errors.New("document too large")
	ErrNotUTF8           = errors.New("document is not valid UTF-8")
	ErrMalformedDocument = errors.New("malformed document")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// StdinRef names standard input as a document reference
const StdinRef = "-"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is loaded contract text with its provenance
type Document struct {
	Source string // File path, final URL, or "stdin"
	Format string // Extractor name
	Text   string
}

// Loader resolves document references
type Loader struct {
	registry *Registry
	fetcher  *Fetcher
	maxBytes int64
	stdin    io.Reader
	logger   logging.Logger
}

// NewLoader creates a loader from configuration
func NewLoader(cfg model.LoaderConfig, semantic model.SemanticConfig, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Loader{
		registry: NewRegistry(),
		fetcher: NewFetcher(FetcherConfig{
			Timeout:       cfg.Timeout,
			UserAgent:     cfg.UserAgent,
			MaxBytes:      cfg.MaxBodyBytes,
			RespectRobots: cfg.RespectRobots,
			HTTPProxy:     semantic.HTTPProxy,
			HTTPSProxy:    semantic.HTTPSProxy,
		}),
		maxBytes: cfg.MaxBodyBytes,
		stdin:    os.Stdin,
		logger:   logger,
	}
}

// WithStdin replaces the reader used for the "-" reference
func (l *Loader) WithStdin(r io.Reader) *Loader {
	l.stdin = r
	return l
}

// Load reads a file path, an http(s) URL, or "-" for stdin
func (l *Loader) Load(ctx context.Context, ref string) (*Document, error) {
	var (
		raw         []byte
		source      string
		contentType string
		err         error
	)

	switch {
	case ref == StdinRef:
		source = "stdin"
		raw, err = readLimited(l.stdin, l.maxBytes)
	case IsURL(ref):
		var res *FetchResult
		res, err = l.fetcher.Fetch(ctx, ref)
		if err == nil {
			raw, source, contentType = res.Body, res.FinalURL, res.ContentType
		}
	default:
		source = ref
		raw, err = l.readFile(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	if isPDF(source, contentType, raw) {
		return nil, fmt.Errorf("load %s: %w: PDF, export the contract to DOCX or text first", ref, ErrUnsupportedFormat)
	}

	extractor := l.registry.Find(source, contentType)
	if extractor.Name() == "text" {
		switch {
		case looksLikeHTML(raw):
			extractor = l.registry.Find(".html", "text/html")
		case looksLikeZip(raw):
			extractor = l.registry.Find(".docx", docxContentType)
		}
	}

	text, err := decode(raw, extractor)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}

	l.logger.Debug("document loaded",
		logging.String("source", source),
		logging.String("format", extractor.Name()),
		logging.Int("bytes", len(raw)))

	return &Document{Source: source, Format: extractor.Name(), Text: text}, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readLimited(f, l.maxBytes)
}

// decode extracts text and validates it; binary formats such as DOCX are
// only checked after extraction
func decode(raw []byte, extractor Extractor) (string, error) {
	text, err := extractor.Extract(raw)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(text) {
		return "", ErrNotUTF8
	}
	return Normalize(text), nil
}

// Normalize applies Unicode NFC so composed and decomposed Devanagari
// (nukta forms in particular) match the same vocabulary terms
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// IsURL reports whether ref is an http(s) URL
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isPDF(source, contentType string, raw []byte) bool {
	return strings.EqualFold(filepath.Ext(source), ".pdf") ||
		strings.HasPrefix(strings.ToLower(contentType), "application/pdf") ||
		bytes.HasPrefix(raw, []byte("%PDF-"))
}

func looksLikeHTML(raw []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(raw[:min(len(raw), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
