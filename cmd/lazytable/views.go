package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rebeliceyang/lazytable/internal/views"
)

var (
	viewsCommand = app.Command("views", "Manage saved views.")

	viewsList = viewsCommand.Command("list", "List the saved views of the configured table.")

	viewsSave        = viewsCommand.Command("save", "Save a URL query string as a view.")
	viewsSaveQuery   = viewsSave.Arg("query", "URL query string.").Required().String()
	viewsSaveName    = viewsSave.Flag("name", "View name. Suggested from the query when empty.").Short('n').String()
	viewsSaveDesc    = viewsSave.Flag("description", "View description.").String()
	viewsSaveReplace = viewsSave.Flag("replace", "Id of a view to overwrite.").String()

	viewsDelete   = viewsCommand.Command("delete", "Delete a saved view.")
	viewsDeleteID = viewsDelete.Arg("id", "View id.").Required().String()
)

func doViewsList() {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv(ctx)
	kingpin.FatalIfError(err, "Unable to start")
	defer e.Close()

	list := e.views.Views()
	if len(list) == 0 {
		fmt.Printf("No saved views for %s\n", e.cfg.Table.Key)
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "Name", "Description", "Updated").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, v := range list {
		t.Row(v.ID, v.Name, v.Description, v.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println(t.String())
}

func doViewsSave() {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv(ctx)
	kingpin.FatalIfError(err, "Unable to start")
	defer e.Close()

	state, _, err := resolveState(e, *viewsSaveQuery, "")
	kingpin.FatalIfError(err, "views save")
	if !state.CanSave() {
		kingpin.Fatalf("nothing to save: the query has no filters, sorting or column changes")
	}

	draft := views.NewDraft(e.suggester(), views.DraftOptions{
		Editing: *viewsSaveReplace != "",
		Log:     e.log.WithField("component", "draft"),
	})
	if *viewsSaveName != "" {
		draft.SetName(*viewsSaveName)
	}
	if *viewsSaveDesc != "" {
		draft.SetDescription(*viewsSaveDesc)
	}

	if e.cfg.Suggest.Enabled {
		_, columns, err := e.source.Rows(ctx)
		kingpin.FatalIfError(err, "Unable to read columns")
		if summary, ok := views.Summarize(e.cfg.Table.Key, state, columns); ok {
			draft.Refresh(summary)
		}
		draft.Wait()
	}
	draft.Close()

	in := draft.Input(state, *viewsSaveReplace)
	if in.Name == "" {
		in.Name = e.views.DefaultName()
	}

	view, err := e.views.Save(ctx, in)
	kingpin.FatalIfError(err, "Unable to save view")
	fmt.Printf("Saved %q (%s)\n", view.Name, view.ID)
}

func doViewsDelete() {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv(ctx)
	kingpin.FatalIfError(err, "Unable to start")
	defer e.Close()

	err = e.views.Delete(ctx, *viewsDeleteID)
	kingpin.FatalIfError(err, "Unable to delete view")
	_, _ = fmt.Fprintf(os.Stdout, "Deleted %s\n", *viewsDeleteID)
}

func init() {
	commandHandlers = append(commandHandlers, func(command string) bool {
		switch command {
		case viewsList.FullCommand():
			doViewsList()
		case viewsSave.FullCommand():
			doViewsSave()
		case viewsDelete.FullCommand():
			doViewsDelete()
		default:
			return false
		}
		return true
	})
}
