package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var rubles = message.NewPrinter(language.Russian)

// formatRubles groups digits the way a Russian reader expects.
func formatRubles(p *message.Printer, amount int64) string {
	return p.Sprintf("%d ₽", amount)
}

// render writes v as JSON or YAML, or calls text for the human format.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case outputText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q, want text, json or yaml", format)
	}
}
