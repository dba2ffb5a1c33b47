package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/export"
	"github.com/rebeliceyang/lazytable/internal/filter"
	"github.com/rebeliceyang/lazytable/internal/models"
	"github.com/rebeliceyang/lazytable/internal/tablestate"
	"github.com/rebeliceyang/lazytable/internal/urlstate"
)

var (
	queryCommand = app.Command("query", "Print one page of rows for a URL query string.")
	queryString  = queryCommand.Arg("query", "URL query, e.g. 'sort=created_at:desc&page=2'.").String()
	queryView    = queryCommand.Flag("view", "Apply a saved view (id or name) first.").String()
	queryFormat  = queryCommand.Flag("format", "Output format.").Default("table").Enum("table", "csv", "json")

	exportCommand = app.Command("export", "Write every matching row to a file.")
	exportString  = exportCommand.Arg("query", "URL query string.").String()
	exportView    = exportCommand.Flag("view", "Apply a saved view (id or name) first.").String()
	exportFormat  = exportCommand.Flag("format", "File format.").Default("csv").Enum("csv", "json")
	exportOutput  = exportCommand.Flag("output", "Destination file.").Short('o').Required().String()
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#585b70"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// resolveState parses the query string and, when a view is named, applies it
// through a table whose mirror keeps the canonical query in sync
func resolveState(e *env, raw, viewRef string) (models.TableQueryState, url.Values, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return models.TableQueryState{}, nil, fmt.Errorf("invalid query string: %w", err)
	}

	t := tablestate.New(urlstate.FromValues(values))
	t.SetMirror(func(state models.TableQueryState) {
		urlstate.Write(values, state)
	})

	if viewRef != "" {
		view, ok := findView(e, viewRef)
		if !ok {
			return models.TableQueryState{}, nil, fmt.Errorf("no saved view %q for table %q", viewRef, e.cfg.Table.Key)
		}
		e.views.Apply(view, t)
	}
	return t.Snapshot(), values, nil
}

func findView(e *env, ref string) (models.SavedView, bool) {
	if v, ok := e.views.Get(ref); ok {
		return v, true
	}
	for _, v := range e.views.Views() {
		if strings.EqualFold(v.Name, ref) {
			return v, true
		}
	}
	return models.SavedView{}, false
}

func runQuery(ctx context.Context, e *env, state models.TableQueryState) (filter.Page, []string, error) {
	rows, columns, err := e.source.Rows(ctx)
	if err != nil {
		return filter.Page{}, nil, err
	}
	page := e.evaluator.Run(rows, state)
	visible := filter.ResolveColumns(columns, state)
	page.Rows = filter.Project(page.Rows, visible)
	return page, visible, nil
}

func renderTable(w io.Writer, columns []string, page filter.Page, query string) {
	headers := make([]string, len(columns))
	for i, id := range columns {
		headers[i] = filter.ColumnLabel(id)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range page.Rows {
		cells := make([]string, len(columns))
		for i, id := range columns {
			cells[i] = export.FormatCell(row[id])
		}
		t.Row(cells...)
	}

	_, _ = fmt.Fprintln(w, t.String())

	pageCount := page.PageCount
	if pageCount == 0 {
		pageCount = 1
	}
	footer := fmt.Sprintf("page %d of %d, %d rows", page.PageIndex+1, pageCount, page.Total)
	if query != "" {
		footer += "  ?" + query
	}
	_, _ = fmt.Fprintln(w, footerStyle.Render(footer))
}

func doQuery() {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv(ctx)
	kingpin.FatalIfError(err, "Unable to start")
	defer e.Close()

	state, values, err := resolveState(e, *queryString, *queryView)
	kingpin.FatalIfError(err, "query")

	page, columns, err := runQuery(ctx, e, state)
	kingpin.FatalIfError(err, "Unable to read rows")

	switch *queryFormat {
	case "csv":
		err = export.WriteCSV(os.Stdout, columns, page.Rows)
	case "json":
		err = export.WriteJSON(os.Stdout, columns, page.Rows)
	default:
		renderTable(os.Stdout, columns, page, values.Encode())
	}
	kingpin.FatalIfError(err, "output")
}

func doExport() {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv(ctx)
	kingpin.FatalIfError(err, "Unable to start")
	defer e.Close()

	state, _, err := resolveState(e, *exportString, *exportView)
	kingpin.FatalIfError(err, "export")

	rows, columns, err := e.source.Rows(ctx)
	kingpin.FatalIfError(err, "Unable to read rows")

	// one page large enough for every row
	state.Pagination = models.Pagination{PageIndex: 0, PageSize: max(len(rows), 1)}
	page := e.evaluator.Run(rows, state)
	visible := filter.ResolveColumns(columns, state)

	err = export.Export(*exportFormat, visible, page.Rows, *exportOutput)
	kingpin.FatalIfError(err, "Unable to export")

	e.log.WithFields(logrus.Fields{
		"rows":   len(page.Rows),
		"format": *exportFormat,
		"path":   *exportOutput,
	}).Info("exported rows")
}

func init() {
	commandHandlers = append(commandHandlers, func(command string) bool {
		switch command {
		case queryCommand.FullCommand():
			doQuery()
		case exportCommand.FullCommand():
			doExport()
		default:
			return false
		}
		return true
	})
}
