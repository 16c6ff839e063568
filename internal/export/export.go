// Package export writes dashboard reports as text, JSON, YAML or XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/triviadash/internal/stats"
)

// Format is an output format name.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// TextWidth is the chart width used for text output.
const TextWidth = 80

// ParseFormat parses a format name. Empty input means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	case FormatText, FormatJSON, FormatYAML, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (use text, json, yaml or xlsx)", s)
	}
}

// Write encodes r to w. XLSX is a file format, use WriteXLSX for it.
func Write(w io.Writer, format Format, r stats.Report) error {
	switch format {
	case FormatText, "":
		return stats.RenderReport(w, r, TextWidth, false)
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatXLSX:
		return fmt.Errorf("xlsx output needs a file path")
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
