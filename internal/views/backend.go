// Package views stores, lists and applies saved table views.
package views

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// ErrNotFound is returned when a view id does not exist
var ErrNotFound = errors.New("saved view not found")

// ValidationError reports bad user input, such as a blank view name
type ValidationError = models.ValidationError

// SaveRequest creates a view, or updates one in place when ViewID is set
type SaveRequest struct {
	TableKey    string                 `json:"tableKey"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	State       models.TableQueryState `json:"state"`
	ViewID      string                 `json:"viewId,omitempty"`
}

// Backend persists saved views
type Backend interface {
	// List returns the views of a table, most recently updated first
	List(ctx context.Context, tableKey string) ([]models.SavedView, error)
	// Save creates or updates a view and returns the stored record
	Save(ctx context.Context, req SaveRequest) (models.SavedView, error)
	// Delete removes a view by id
	Delete(ctx context.Context, viewID string) error
}

// normalise trims the request and rejects it when the name is blank
func (r SaveRequest) normalise() (SaveRequest, error) {
	r.TableKey = strings.TrimSpace(r.TableKey)
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.ViewID = strings.TrimSpace(r.ViewID)

	if r.TableKey == "" {
		return r, &ValidationError{Field: "tableKey", Message: "table key cannot be empty"}
	}
	if r.Name == "" {
		return r, &ValidationError{Field: "name", Message: "give your view a name before saving"}
	}
	return r, nil
}

func sortByUpdated(views []models.SavedView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UpdatedAt.After(views[j].UpdatedAt)
	})
}

// decodeState decodes a stored query state. A malformed state is logged and
// replaced by the default state so one bad view never hides the others.
func decodeState(log logrus.FieldLogger, viewID string, decode func(state *models.TableQueryState) error) models.TableQueryState {
	state := models.NewTableQueryState()
	if err := decode(&state); err != nil {
		log.WithError(err).WithField("view_id", viewID).Debug("malformed saved view state, using defaults")
		return models.NewTableQueryState()
	}
	return state.Clone()
}
