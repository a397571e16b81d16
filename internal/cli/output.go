package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	successLabel  = color.New(color.FgGreen)
	failedLabel   = color.New(color.FgRed)
	upcomingLabel = color.New(color.FgBlue)
	unknownLabel  = color.New(color.FgHiBlack)
)

// resolveFormat picks the output format for w: the --output flag when set,
// a table on a terminal, JSON otherwise
func resolveFormat(w io.Writer) (string, error) {
	switch outputFormat {
	case formatTable, formatJSON, formatYAML:
		return outputFormat, nil
	case "":
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", outputFormat)
	}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return formatTable, nil
	}
	return formatJSON, nil
}

// render writes v as JSON or YAML, or calls table for the table format
func render(w io.Writer, v any, table func() error) error {
	format, err := resolveFormat(w)
	if err != nil {
		return err
	}
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		return table()
	}
}

// writeYAML goes through JSON so the YAML keys match the API field names
// and keep their order
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
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

func statusLabel(status string) string {
	switch status {
	case "success":
		return successLabel.Sprint(status)
	case "failed":
		return failedLabel.Sprint(status)
	case "upcoming":
		return upcomingLabel.Sprint(status)
	default:
		return unknownLabel.Sprint(status)
	}
}

// formatDate renders an API timestamp for tables. Unparseable dates are
// returned unchanged
func formatDate(dateUTC string) string {
	t, err := time.Parse(time.RFC3339, dateUTC)
	if err != nil {
		return dateUTC
	}
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
