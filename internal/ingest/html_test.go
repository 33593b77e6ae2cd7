package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLExtractor_PrefersMain(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>NDA</title><style>p{color:red}</style></head>
<body>
<nav>Home | Contracts | Login</nav>
<main>
  <h1>Mutual NDA</h1>
  <p>Section 1. The Receiving Party shall keep all information confidential.</p>
  <p>Section 2. This agreement may be terminated by either party.</p>
  <script>track()</script>
</main>
<footer>Copyright 2024</footer>
</body></html>`

	text, err := NewHTMLExtractor().Extract([]byte(page))
	require.NoError(t, err)

	assert.Contains(t, text, "Section 1. The Receiving Party shall keep all information confidential.")
	assert.Contains(t, text, "Section 2.")
	assert.NotContains(t, text, "Login")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "color:red")
	assert.True(t, strings.HasPrefix(text, "Mutual NDA"))
}

func TestHTMLExtractor_RoleMainAndHidden(t *testing.T) {
	page := `<html><body>
<div>Sidebar links</div>
<div role="main"><p>Clause 1. The Licensee shall pay royalties.</p><p hidden>draft note</p><span aria-hidden="true">icon</span></div>
</body></html>`

	text, err := NewHTMLExtractor().Extract([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Clause 1. The Licensee shall pay royalties.", strings.TrimSpace(text))
}

func TestHTMLExtractor_WholeBodyFallback(t *testing.T) {
	text, err := NewHTMLExtractor().Extract([]byte(`<p>First paragraph.</p><p>Second paragraph.</p>`))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestRegistry_Find(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name        string
		contentType string
		want        string
	}{
		{"contract.html", "", "html"},
		{"contract.HTM", "", "html"},
		{"https://example.com/nda", "text/html; charset=utf-8", "html"},
		{"contract.txt", "", "text"},
		{"contract.md", "", "text"},
		{"stdin", "", "text"},
		{"https://example.com/nda.txt", "text/plain", "text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Find(tt.name, tt.contentType).Name(), tt.name)
	}
}
