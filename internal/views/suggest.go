package views

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/rebeliceyang/lazytable/internal/filter"
	"github.com/rebeliceyang/lazytable/internal/models"
)

// SummaryFilter is one active filter as seen by a suggester
type SummaryFilter struct {
	Column   string                `json:"column"`
	Operator models.FilterOperator `json:"operator"`
	Variant  models.FilterVariant  `json:"variant"`
	Value    models.FilterValue    `json:"value"`
}

// SummarySort is one sort key as seen by a suggester
type SummarySort struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// Summary describes a table state for naming purposes
type Summary struct {
	TableKey       string          `json:"tableKey"`
	Filters        []SummaryFilter `json:"filters"`
	Sorting        []SummarySort   `json:"sorting"`
	HiddenColumns  []string        `json:"hiddenColumns"`
	VisibleColumns []string        `json:"visibleColumns"`
	ColumnOrder    []string        `json:"columnOrder"`
}

// Summarize builds the summary of a state over the table's columns.
// ok is false when the state has nothing worth naming.
func Summarize(tableKey string, state models.TableQueryState, columns []string) (Summary, bool) {
	if !state.CanSave() {
		return Summary{}, false
	}

	s := Summary{
		TableKey:       tableKey,
		Filters:        make([]SummaryFilter, len(state.Filters)),
		Sorting:        make([]SummarySort, len(state.Sorting)),
		HiddenColumns:  []string{},
		VisibleColumns: []string{},
		ColumnOrder:    append([]string{}, state.ColumnOrder...),
	}
	for i, f := range state.Filters {
		s.Filters[i] = SummaryFilter{Column: f.ID, Operator: f.Operator, Variant: f.Variant, Value: f.Value}
	}
	for i, sort := range state.Sorting {
		dir := "asc"
		if sort.Desc {
			dir = "desc"
		}
		s.Sorting[i] = SummarySort{Column: sort.ID, Direction: dir}
	}

	seen := make(map[string]bool, len(columns))
	for _, id := range columns {
		if seen[id] {
			continue
		}
		seen[id] = true
		if state.IsVisible(id) {
			s.VisibleColumns = append(s.VisibleColumns, id)
		} else {
			s.HiddenColumns = append(s.HiddenColumns, id)
		}
	}
	return s, true
}

// Signature is the content hash of the summary. Equal summaries always
// have equal signatures.
func (s Summary) Signature() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Suggestion is a proposed name and description; empty fields are ignored
type Suggestion struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Suggester proposes a name for a table state
type Suggester interface {
	Suggest(ctx context.Context, summary Summary) (Suggestion, error)
}

// SuggesterFunc adapts a function to Suggester
type SuggesterFunc func(ctx context.Context, summary Summary) (Suggestion, error)

func (f SuggesterFunc) Suggest(ctx context.Context, summary Summary) (Suggestion, error) {
	return f(ctx, summary)
}

// SharedSuggester collapses concurrent calls with the same signature into
// one call to the wrapped suggester. Each caller still stops waiting as soon
// as its own context is done.
type SharedSuggester struct {
	next  Suggester
	group singleflight.Group
}

// NewSharedSuggester wraps next
func NewSharedSuggester(next Suggester) *SharedSuggester {
	return &SharedSuggester{next: next}
}

func (s *SharedSuggester) Suggest(ctx context.Context, summary Summary) (Suggestion, error) {
	// the shared call must outlive any single caller
	callCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(summary.Signature(), func() (any, error) {
		return s.next.Suggest(callCtx, summary)
	})

	select {
	case <-ctx.Done():
		return Suggestion{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Suggestion{}, res.Err
		}
		return res.Val.(Suggestion), nil
	}
}

// HeuristicSuggester names a view from its filters and sorting without any
// remote call
type HeuristicSuggester struct{}

func (HeuristicSuggester) Suggest(ctx context.Context, summary Summary) (Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return Suggestion{}, err
	}

	var phrases []string
	for _, f := range summary.Filters {
		phrases = append(phrases, filter.Describe(models.ColumnFilter{
			ID: f.Column, Operator: f.Operator, Variant: f.Variant, Value: f.Value,
		}))
	}

	var name string
	switch {
	case len(phrases) == 1:
		name = phrases[0]
	case len(phrases) > 1:
		name = phrases[0] + fmt.Sprintf(" +%d", len(phrases)-1)
	case len(summary.Sorting) > 0:
		name = "By " + filter.ColumnLabel(summary.Sorting[0].Column)
	case len(summary.HiddenColumns) > 0:
		name = "Without " + filter.ColumnLabel(summary.HiddenColumns[0])
	default:
		name = "Custom column order"
	}

	var desc []string
	if len(phrases) > 0 {
		desc = append(desc, "Rows where "+strings.Join(phrases, " and ")+".")
	}
	if len(summary.Sorting) > 0 {
		keys := make([]string, len(summary.Sorting))
		for i, s := range summary.Sorting {
			keys[i] = filter.ColumnLabel(s.Column) + " " + s.Direction
		}
		desc = append(desc, "Sorted by "+strings.Join(keys, ", ")+".")
	}
	if len(summary.HiddenColumns) > 0 {
		desc = append(desc, "Hides "+strings.Join(summary.HiddenColumns, ", ")+".")
	}

	return Suggestion{Name: capitalise(name), Description: strings.Join(desc, " ")}, nil
}

// capitalise upper-cases the first rune
func capitalise(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// DraftOptions configures a Draft
type DraftOptions struct {
	Name        string
	Description string
	// Editing drafts rename an existing view and never ask for suggestions
	Editing  bool
	Debounce time.Duration
	Log      logrus.FieldLogger
}

// Draft is one save-form session: the name and description being edited
// plus at most one suggestion request in flight. Only the request for the
// latest summary may fill the fields, and a field the user has typed into
// is never overwritten again.
type Draft struct {
	mu        sync.Mutex
	suggester Suggester
	debounce  time.Duration
	log       logrus.FieldLogger
	editing   bool

	name        string
	description string
	nameEdited  bool
	descEdited  bool

	signature  string
	token      uint64
	cancel     context.CancelFunc
	suggesting bool
	closed     bool
	wg         sync.WaitGroup
}

// NewDraft starts a session
func NewDraft(suggester Suggester, opts DraftOptions) *Draft {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Draft{
		suggester:   suggester,
		debounce:    opts.Debounce,
		log:         log,
		editing:     opts.Editing,
		name:        opts.Name,
		description: opts.Description,
	}
}

// Refresh asks for a suggestion for summary unless one for the same
// signature was already requested. A new signature cancels the request in
// flight. It reports whether a request was started.
func (d *Draft) Refresh(summary Summary) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.editing || d.nameEdited || d.suggester == nil {
		return false
	}
	sig := summary.Signature()
	if sig == d.signature {
		return false
	}

	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.token++
	d.cancel = cancel
	d.signature = sig
	d.suggesting = true

	d.wg.Add(1)
	go d.run(ctx, d.token, sig, summary)
	return true
}

func (d *Draft) run(ctx context.Context, token uint64, sig string, summary Summary) {
	defer d.wg.Done()

	if d.debounce > 0 {
		timer := time.NewTimer(d.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	result, err := d.suggester.Suggest(ctx, summary)

	d.mu.Lock()
	defer d.mu.Unlock()

	// superseded or closed: discard silently
	if token != d.token || ctx.Err() != nil {
		return
	}
	d.suggesting = false
	d.cancel = nil

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.log.WithError(err).Warn("could not draft a suggested view name")
		}
		// allow the same summary to be tried again
		d.signature = ""
		return
	}

	if !d.nameEdited && result.Name != "" {
		d.name = result.Name
	}
	if !d.descEdited && result.Description != "" {
		d.description = result.Description
	}
	d.log.WithField("signature", sig).Debug("applied view suggestion")
}

// SetName records a user edit of the name; suggestions stop touching it
func (d *Draft) SetName(name string) {
	d.mu.Lock()
	d.name = name
	d.nameEdited = true
	d.mu.Unlock()
}

// SetDescription records a user edit of the description
func (d *Draft) SetDescription(description string) {
	d.mu.Lock()
	d.description = description
	d.descEdited = true
	d.mu.Unlock()
}

// Name returns the current name
func (d *Draft) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Description returns the current description
func (d *Draft) Description() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.description
}

// Suggesting reports whether a request is in flight
func (d *Draft) Suggesting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suggesting
}

// Input builds the save input from the draft fields
func (d *Draft) Input(state models.TableQueryState, viewID string) SaveInput {
	d.mu.Lock()
	defer d.mu.Unlock()
	return SaveInput{Name: d.name, Description: d.description, State: state, ViewID: viewID}
}

// Close cancels any request in flight; later results are discarded
func (d *Draft) Close() {
	d.mu.Lock()
	d.closed = true
	d.token++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.suggesting = false
	d.mu.Unlock()
}

// Wait blocks until every started request has finished or been discarded
func (d *Draft) Wait() {
	d.wg.Wait()
}
