package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazytable/internal/models"
)

const timeFormat = "2006-01-02 15:04:05"

// FormatCell renders one cell as text for CSV and terminal output
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(timeFormat)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.Format(timeFormat)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = FormatCell(item)
		}
		return strings.Join(parts, ", ")
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// WriteCSV writes a header of column ids followed by one line per row
func WriteCSV(w io.Writer, columns []string, rows []models.Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		line := make([]string, len(columns))
		for i, id := range columns {
			line[i] = FormatCell(row[id])
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the rows, restricted to columns, as an indented array
func WriteJSON(w io.Writer, columns []string, rows []models.Row) error {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(columns))
		for _, id := range columns {
			m[id] = row[id]
		}
		out[i] = m
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// ExportToCSV writes rows to a CSV file
func ExportToCSV(columns []string, rows []models.Row, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteCSV(file, columns, rows)
}

// ExportToJSON writes rows to a JSON file
func ExportToJSON(columns []string, rows []models.Row, path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteJSON(file, columns, rows)
}

// Export writes rows to path in the given format ("csv" or "json")
func Export(format string, columns []string, rows []models.Row, path string) error {
	switch strings.ToLower(format) {
	case "csv":
		return ExportToCSV(columns, rows, path)
	case "json":
		return ExportToJSON(columns, rows, path)
	}
	return fmt.Errorf("unknown export format %q", format)
}
