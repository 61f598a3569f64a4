package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// FormatTo writes data to writer in text format. Row data ([][]string)
// is written one space-separated row per line.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	if rows, ok := data.([][]string); ok {
		for _, row := range rows {
			for i, cell := range row {
				if i > 0 {
					if _, err := fmt.Fprint(w, "  "); err != nil {
						return err
					}
				}
				if _, err := fmt.Fprint(w, cell); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats output as CSV. Data must be [][]string rows.
type CSVFormatter struct {
	Headers []string
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	rows, ok := data.([][]string)
	if !ok {
		return fmt.Errorf("CSV formatting requires [][]string rows, got %T", data)
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if len(f.Headers) > 0 {
		if err := csvWriter.Write(f.Headers); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
