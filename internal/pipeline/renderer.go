package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauserisk/internal/model"
)

// StdoutPath makes a render target write to standard output
const StdoutPath = "-"

const footer = "_Generated by clauserisk. Scores are keyword heuristics, not legal advice._"

// Renderer writes analysis reports
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer writing summaries to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: os.Stdout}
}

// SetOutput redirects stdout-bound output, for tests and the batch command
func (r *Renderer) SetOutput(w io.Writer) {
	r.out = w
}

// WriteJSON encodes doc as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, doc *model.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// WriteMarkdown renders doc as a Markdown report: a summary table, then
// one section per clause with its score, reasons and suggested fix
func (r *Renderer) WriteMarkdown(w io.Writer, doc *model.Document) error {
	var b strings.Builder

	b.WriteString("# Contract Risk Report\n\n")
	fmt.Fprintf(&b, "- **Source:** %s\n", doc.Source)
	fmt.Fprintf(&b, "- **Language:** %s\n", doc.Language)
	fmt.Fprintf(&b, "- **Composite score:** %d/100 (%s)\n", doc.CompositeScore, doc.Band)
	fmt.Fprintf(&b, "- **Status:** %s\n", doc.Status)
	fmt.Fprintf(&b, "- **Policy:** %s\n", doc.PolicyVersion)
	fmt.Fprintf(&b, "- **Analyzed:** %s\n\n", doc.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("| Band | Clauses |\n|---|---|\n")
	for i := len(model.Bands) - 1; i >= 0; i-- {
		band := model.Bands[i]
		fmt.Fprintf(&b, "| %s | %d |\n", band, doc.BandCounts[band])
	}
	b.WriteString("\n")

	if len(doc.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range doc.Diagnostics {
			writeDiagnostic(&b, d)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Clauses\n\n")
	for _, c := range doc.Clauses {
		fmt.Fprintf(&b, "### Clause %d: %s (%d/100)\n\n", c.Clause.Index+1, c.Assessment.Band, c.Assessment.Score)
		fmt.Fprintf(&b, "> %s\n\n", c.Clause.Text)

		if len(c.Assessment.Reasons) > 0 {
			b.WriteString("**Why:**\n\n")
			for _, reason := range c.Assessment.Reasons {
				fmt.Fprintf(&b, "- %s\n", reason)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**Suggested fix:** %s\n\n", c.Assessment.SuggestedFix)

		if j := c.Judgment; j != nil {
			fmt.Fprintf(&b, "**Semantic review:** ownership %s, exclusivity %s, %s\n\n", j.Ownership, j.Exclusivity, j.Favor)
			fmt.Fprintf(&b, "- Risk: %s\n", j.RiskReason)
			fmt.Fprintf(&b, "- Fix: %s\n\n", j.SuggestedFix)
		}

		for _, d := range c.Diagnostics {
			writeDiagnostic(&b, d)
		}
		if len(c.Diagnostics) > 0 {
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(footer)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeDiagnostic(b *strings.Builder, d model.Diagnostic) {
	if d.Message == "" {
		fmt.Fprintf(b, "- `%s`\n", d.Code)
		return
	}
	fmt.Fprintf(b, "- `%s`: %s\n", d.Code, d.Message)
}

// RenderJSON writes the JSON report to path ("-" for stdout)
func (r *Renderer) RenderJSON(doc *model.Document, path string) error {
	return r.renderTo(path, func(w io.Writer) error { return r.WriteJSON(w, doc) })
}

// RenderMarkdown writes the Markdown report to path ("-" for stdout)
func (r *Renderer) RenderMarkdown(doc *model.Document, path string) error {
	return r.renderTo(path, func(w io.Writer) error { return r.WriteMarkdown(w, doc) })
}

func (r *Renderer) renderTo(path string, write func(io.Writer) error) error {
	if path == StdoutPath {
		return write(r.out)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a short human-readable summary
func (r *Renderer) RenderSummary(doc *model.Document) {
	w := r.out

	fmt.Fprintf(w, "\n%s\n", doc.Source)
	fmt.Fprintf(w, "Composite risk: %d/100 (%s)  language=%s  clauses=%d  status=%s\n",
		doc.CompositeScore, doc.Band, doc.Language, len(doc.Clauses), doc.Status)
	fmt.Fprintf(w, "High: %d  Medium: %d  Low: %d\n",
		doc.BandCounts[model.BandHigh], doc.BandCounts[model.BandMedium], doc.BandCounts[model.BandLow])

	for _, c := range doc.Clauses {
		if c.Assessment.Band == model.BandLow {
			continue
		}
		fmt.Fprintf(w, "  [%s %3d] clause %d: %s\n",
			c.Assessment.Band, c.Assessment.Score, c.Clause.Index+1, excerpt(c.Clause.Text, 72))
	}

	for _, d := range doc.Diagnostics {
		fmt.Fprintf(w, "  ! %s\n", d.Code)
	}
	if n := clauseDiagnostics(doc); n > 0 {
		fmt.Fprintf(w, "  ! %d clause(s) fell back to rule-based scoring\n", n)
	}
}

// RenderReport renders the report to the requested outputs and prints the summary
func (p *Pipeline) RenderReport(doc *model.Document, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(doc, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != StdoutPath {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(doc, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose && mdPath != StdoutPath {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// Keep stdout clean when a report is streamed there
	if jsonPath != StdoutPath && mdPath != StdoutPath {
		p.renderer.RenderSummary(doc)
	}
	return nil
}

func clauseDiagnostics(doc *model.Document) int {
	n := 0
	for _, c := range doc.Clauses {
		if len(c.Diagnostics) > 0 {
			n++
		}
	}
	return n
}

// excerpt shortens s to at most n runes
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
