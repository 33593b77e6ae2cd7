package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// docxContentType is the MIME type of WordprocessingML documents
const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxDocumentXMLBytes bounds the decompressed word/document.xml
const maxDocumentXMLBytes = 32 << 20

var zipMagic = []byte("PK\x03\x04")

// DOCXExtractor reads the body text of Word documents
type DOCXExtractor struct{}

// NewDOCXExtractor creates a DOCX extractor
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Name returns the format name
func (e *DOCXExtractor) Name() string {
	return "docx"
}

// CanHandle accepts .docx files and the WordprocessingML content type
func (e *DOCXExtractor) CanHandle(name string, contentType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".docx") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(contentType), docxContentType)
}

// Extract returns one line per paragraph of word/document.xml. Table cells
// and hyperlinks are read too since their runs sit inside paragraphs.
func (e *DOCXExtractor) Extract(raw []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: not a DOCX archive: %v", ErrMalformedDocument, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open document.xml: %v", ErrMalformedDocument, err)
		}
		defer func() { _ = rc.Close() }()

		return parseDocumentXML(io.LimitReader(rc, maxDocumentXMLBytes))
	}
	return "", fmt.Errorf("%w: word/document.xml not found", ErrMalformedDocument)
}

// parseDocumentXML streams the WordprocessingML body: w:t carries text,
// w:tab and w:br are whitespace, and every w:p ends a line
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: document.xml: %v", ErrMalformedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte(' ')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}

func looksLikeZip(raw []byte) bool {
	return bytes.HasPrefix(raw, zipMagic)
}
