package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	fmt.Fprintf(&sb, "- Ports: %d\n", r.Ports)
	fmt.Fprintf(&sb, "- Frequency points: %d", len(r.Frequencies))
	if n := len(r.Frequencies); n > 0 {
		fmt.Fprintf(&sb, " (%s to %s)", formatHz(r.Frequencies[0]), formatHz(r.Frequencies[n-1]))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Fingerprint: `%s`\n\n", r.Fingerprint)

	sb.WriteString("## Standard uncertainty over frequency\n\n")
	sb.WriteString("| Component | Mean | Median | Min | Max |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, s := range r.Summaries {
		fmt.Fprintf(&sb, "| %s | %.4g | %.4g | %.4g | %.4g |\n", s.Label, s.Mean, s.Median, s.Min, s.Max)
	}

	if c := r.Check; c != nil {
		sb.WriteString("\n## Generated sample check\n\n")
		fmt.Fprintf(&sb, "- Samples: %d\n", c.Samples)
		fmt.Fprintf(&sb, "- Components tested: %d\n", c.Tested)
		fmt.Fprintf(&sb, "- Failed at alpha %.3g: %d (pass rate %.1f%%)\n", c.Alpha, c.Failed, 100*c.PassRate())
		if c.Tested > 0 {
			fmt.Fprintf(&sb, "- Smallest p-value: %.3g (%s at %s)\n", c.MinP, c.MinPLabel, formatHz(c.MinPFreq))
		}
		verdict := "consistent"
		if !c.Acceptable() {
			verdict = "NOT consistent"
		}
		fmt.Fprintf(&sb, "- Verdict: samples are %s with the covariance\n", verdict)
	}
	return sb.String()
}

// HTML renders the markdown document as a standalone HTML page.
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(r.Markdown()))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: r.Title,
	})
	return markdown.Render(doc, renderer)
}

func formatHz(hz float64) string {
	switch {
	case hz >= 1e9:
		return fmt.Sprintf("%g GHz", hz/1e9)
	case hz >= 1e6:
		return fmt.Sprintf("%g MHz", hz/1e6)
	case hz >= 1e3:
		return fmt.Sprintf("%g kHz", hz/1e3)
	default:
		return fmt.Sprintf("%g Hz", hz)
	}
}
