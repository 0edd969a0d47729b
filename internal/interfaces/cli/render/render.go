// Package render writes command results as an aligned table, JSON, or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, or yaml in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json, or yaml)", s)
}

// Table receives rows for the table format
type Table struct {
	tw *tabwriter.Writer
}

// Row writes one tab-separated line
func (t *Table) Row(cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

// Blank writes an empty line, ending the current column block
func (t *Table) Blank() {
	fmt.Fprintln(t.tw)
}

// Renderer writes results in one format
type Renderer struct {
	Format Format
	Out    io.Writer
}

// New creates a Renderer
func New(format Format, out io.Writer) *Renderer {
	return &Renderer{Format: format, Out: out}
}

// Render writes v as JSON or YAML, or calls table to lay it out as a table
func (r *Renderer) Render(v any, table func(t *Table)) error {
	switch r.Format {
	case FormatJSON:
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		return r.yaml(v)
	}

	tw := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	table(&Table{tw: tw})
	return tw.Flush()
}

// yaml goes through JSON first so field names and status values match the
// JSON output and the wire.
func (r *Renderer) yaml(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(r.Out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Message writes a confirmation line. In JSON and YAML it becomes
// {"message": msg} so scripted callers always get a document.
func (r *Renderer) Message(msg string) error {
	if r.Format == FormatTable {
		_, err := fmt.Fprintln(r.Out, msg)
		return err
	}
	return r.Render(map[string]string{"message": msg}, nil)
}

// Truncate shortens s to n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
