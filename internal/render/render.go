// Package render formats a random pick for the terminal or for files.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rohmanhakim/fic-roulette/internal/orchestrator"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatMarkdown, FormatHTML}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Ext is the file extension used when a pick is saved in this format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}

// Write renders result in format. noColor only affects FormatText.
func Write(w io.Writer, format Format, result orchestrator.Result, noColor bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(result))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(result))
		return err
	case FormatText:
		return writeText(w, result, noColor)
	}
	return fmt.Errorf("unknown output format %q", format)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`<`, `&lt;`,
)

// Markdown renders result as a Markdown card.
func Markdown(result orchestrator.Result) string {
	var b strings.Builder
	if result.Item == nil {
		fmt.Fprintf(&b, "**%s**\n", markdownEscaper.Replace(result.Error))
		if result.FallbackReason != "" {
			fmt.Fprintf(&b, "\n_Live lookup failed: %s_\n", result.FallbackReason)
		}
		return b.String()
	}

	item := result.Item
	fmt.Fprintf(&b, "## [%s](%s)\n\n", markdownEscaper.Replace(item.Title), item.URL)
	fmt.Fprintf(&b, "**Author:** %s  \n", markdownEscaper.Replace(item.Author))
	fmt.Fprintf(&b, "**Rating:** %s  \n", markdownEscaper.Replace(item.Rating))
	fmt.Fprintf(&b, "**Words:** %s\n", markdownEscaper.Replace(item.WordCount))

	if item.Summary != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(item.Summary, "\n") {
			if line == "" {
				b.WriteString(">\n")
				continue
			}
			fmt.Fprintf(&b, "> %s\n", line)
		}
	}

	if note := sourceNote(result); note != "" {
		fmt.Fprintf(&b, "\n_%s_\n", note)
	}
	return b.String()
}

// HTML renders the Markdown card to sanitized HTML.
func HTML(result orchestrator.Result) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	raw := markdown.ToHTML([]byte(Markdown(result)), p, renderer)

	body := bluemonday.UGCPolicy().SanitizeBytes(raw)
	out := make([]byte, 0, len(body)+64)
	out = append(out, `<article class="work">`+"\n"...)
	out = append(out, body...)
	out = append(out, "</article>\n"...)
	return out
}

func sourceNote(result orchestrator.Result) string {
	if result.Source != orchestrator.SourceCache {
		return ""
	}
	freshness := "cached"
	if result.Stale {
		freshness = "stale cached"
	}
	return fmt.Sprintf("Served from %s results: %s", freshness, result.FallbackReason)
}

func writeText(w io.Writer, result orchestrator.Result, noColor bool) error {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Faint)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed, color.Bold)
	if noColor {
		for _, c := range []*color.Color{title, label, warn, fail} {
			c.DisableColor()
		}
	}

	if result.Item == nil {
		if _, err := fail.Fprintf(w, "%s\n", result.Error); err != nil {
			return err
		}
		if result.FallbackReason != "" {
			_, err := warn.Fprintf(w, "live lookup failed: %s\n", result.FallbackReason)
			return err
		}
		return nil
	}

	item := result.Item
	var b strings.Builder
	b.WriteString(title.Sprint(item.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", label.Sprint("by"), item.Author)
	fmt.Fprintf(&b, "  %s %s  %s %s\n", label.Sprint("rating"), item.Rating, label.Sprint("words"), item.WordCount)
	fmt.Fprintf(&b, "  %s\n", item.URL)
	if item.Summary != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(item.Summary, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if note := sourceNote(result); note != "" {
		b.WriteString("\n")
		b.WriteString(warn.Sprint(note))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
