// Package urlstate maps a table query state to flat URL parameters and back.
//
// The mapping is permissive: malformed parameters fall back to defaults and
// are logged at debug level, never returned as errors.
package urlstate

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// Parameter names owned by the table; every other key is left alone
const (
	ParamPage       = "page"
	ParamPageSize   = "pageSize"
	ParamSort       = "sort"
	ParamFilters    = "filters"
	ParamVisibility = "visibility"
	ParamOrder      = "order"
)

// OwnedKeys lists every parameter written by Write
var OwnedKeys = []string{ParamPage, ParamPageSize, ParamSort, ParamFilters, ParamVisibility, ParamOrder}

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used to report malformed parameters
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		log = l
	}
}

// Serialize flattens a state into URL parameters. Defaults are omitted:
// page 1, page size 50, and empty sort, filter, visibility and order lists.
func Serialize(state models.TableQueryState) map[string]string {
	out := make(map[string]string)

	if state.Pagination.PageIndex > 0 {
		out[ParamPage] = strconv.Itoa(state.Pagination.PageIndex + 1)
	}
	if state.Pagination.PageSize != models.DefaultPageSize && state.Pagination.PageSize > 0 {
		out[ParamPageSize] = strconv.Itoa(state.Pagination.PageSize)
	}

	if len(state.Sorting) > 0 {
		tokens := make([]string, len(state.Sorting))
		for i, s := range state.Sorting {
			dir := "asc"
			if s.Desc {
				dir = "desc"
			}
			tokens[i] = s.ID + ":" + dir
		}
		out[ParamSort] = strings.Join(tokens, ",")
	}

	if len(state.Filters) > 0 {
		if data, err := json.Marshal(state.Filters); err == nil {
			out[ParamFilters] = EncodeComponent(string(data))
		} else {
			log.WithError(err).WithField("param", ParamFilters).Debug("skipping unencodable filters")
		}
	}

	hidden := make(map[string]bool)
	for _, id := range state.HiddenColumns() {
		hidden[id] = false
	}
	if len(hidden) > 0 {
		// map keys are marshalled sorted, so the output is stable
		data, _ := json.Marshal(hidden)
		out[ParamVisibility] = EncodeComponent(string(data))
	}

	if len(state.ColumnOrder) > 0 {
		out[ParamOrder] = strings.Join(state.ColumnOrder, ",")
	}

	return out
}

// Deserialize rebuilds a state from URL parameters. Missing or malformed
// parameters yield their defaults.
func Deserialize(params map[string]string) models.TableQueryState {
	state := models.NewTableQueryState()

	state.Pagination = parsePagination(params[ParamPage], params[ParamPageSize])
	state.Sorting = parseSorting(params[ParamSort])
	state.Filters = parseFilters(params[ParamFilters])
	state.ColumnVisibility = parseVisibility(params[ParamVisibility])
	state.ColumnOrder = parseOrder(params[ParamOrder])

	return state
}

// FromValues deserializes the first value of each owned key
func FromValues(values url.Values) models.TableQueryState {
	params := make(map[string]string, len(OwnedKeys))
	for _, key := range OwnedKeys {
		if v := values.Get(key); v != "" {
			params[key] = v
		}
	}
	return Deserialize(params)
}

// Write replaces the owned keys of values with the serialized state.
// Keys the table does not own are preserved.
func Write(values url.Values, state models.TableQueryState) {
	for _, key := range OwnedKeys {
		values.Del(key)
	}
	for key, v := range Serialize(state) {
		values.Set(key, v)
	}
}

func parsePagination(page, pageSize string) models.Pagination {
	p := models.Pagination{PageIndex: 0, PageSize: models.DefaultPageSize}

	if page != "" {
		n, err := strconv.Atoi(strings.TrimSpace(page))
		if err != nil {
			log.WithField("param", ParamPage).Debugf("ignoring malformed page %q", page)
		} else {
			p.PageIndex = n - 1
		}
	}
	if pageSize != "" {
		n, err := strconv.Atoi(strings.TrimSpace(pageSize))
		if err != nil {
			log.WithField("param", ParamPageSize).Debugf("ignoring malformed page size %q", pageSize)
		} else {
			p.PageSize = n
		}
	}

	if p.PageIndex < 0 {
		p.PageIndex = 0
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	return p
}

// parseSorting accepts "id" and "id:asc|desc" tokens. Any malformed token
// empties the whole list.
func parseSorting(raw string) []models.SortSpec {
	sorting := []models.SortSpec{}
	if raw == "" {
		return sorting
	}

	for _, token := range strings.Split(raw, ",") {
		parts := strings.Split(token, ":")
		if len(parts) > 2 || parts[0] == "" {
			log.WithField("param", ParamSort).Debugf("ignoring malformed sort %q", raw)
			return []models.SortSpec{}
		}
		spec := models.SortSpec{ID: parts[0]}
		if len(parts) == 2 {
			spec.Desc = parts[1] == "desc"
		}
		sorting = append(sorting, spec)
	}
	return sorting
}

func parseFilters(raw string) []models.ColumnFilter {
	filters := []models.ColumnFilter{}
	if raw == "" {
		return filters
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		log.WithError(err).WithField("param", ParamFilters).Debug("ignoring undecodable filters")
		return filters
	}
	if err := json.Unmarshal([]byte(decoded), &filters); err != nil {
		log.WithError(err).WithField("param", ParamFilters).Debug("ignoring malformed filters")
		return []models.ColumnFilter{}
	}
	if filters == nil {
		filters = []models.ColumnFilter{}
	}
	return filters
}

func parseVisibility(raw string) map[string]bool {
	visibility := map[string]bool{}
	if raw == "" {
		return visibility
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		log.WithError(err).WithField("param", ParamVisibility).Debug("ignoring undecodable visibility")
		return visibility
	}
	if err := json.Unmarshal([]byte(decoded), &visibility); err != nil {
		log.WithError(err).WithField("param", ParamVisibility).Debug("ignoring malformed visibility")
		return map[string]bool{}
	}
	if visibility == nil {
		visibility = map[string]bool{}
	}
	return visibility
}

func parseOrder(raw string) []string {
	order := []string{}
	if raw == "" {
		return order
	}
	for _, id := range strings.Split(raw, ",") {
		if id != "" {
			order = append(order, id)
		}
	}
	return order
}

// characters encodeURIComponent leaves alone but QueryEscape escapes
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s the way browsers encode a URI component
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
