// Package server exposes records, operators and saved views over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/filter"
	"github.com/rebeliceyang/lazytable/internal/models"
	"github.com/rebeliceyang/lazytable/internal/records"
	"github.com/rebeliceyang/lazytable/internal/urlstate"
	"github.com/rebeliceyang/lazytable/internal/views"
)

// Options wires the server to its collaborators
type Options struct {
	Source    records.Source
	Store     *records.Store // nil when rows are read only
	Views     *views.Manager
	Evaluator *filter.Evaluator
	Suggester views.Suggester
	Log       logrus.FieldLogger
}

type Server struct {
	source    records.Source
	store     *records.Store
	views     *views.Manager
	evaluator *filter.Evaluator
	suggester views.Suggester
	log       logrus.FieldLogger
}

func NewServer(opts Options) *Server {
	s := &Server{
		source:    opts.Source,
		store:     opts.Store,
		views:     opts.Views,
		evaluator: opts.Evaluator,
		suggester: opts.Suggester,
		log:       opts.Log,
	}
	if s.evaluator == nil {
		s.evaluator = filter.NewEvaluator()
	}
	if s.suggester == nil {
		s.suggester = views.HeuristicSuggester{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/records", s.listRecordsHandler)
	mux.HandleFunc("POST /api/records", s.createRecordHandler)
	mux.HandleFunc("PATCH /api/records", s.updateRecordsHandler)
	mux.HandleFunc("DELETE /api/records", s.deleteRecordsHandler)
	mux.HandleFunc("PATCH /api/records/{id}", s.updateRecordHandler)
	mux.HandleFunc("GET /api/operators", s.operatorsHandler)
	mux.HandleFunc("GET /api/views", s.listViewsHandler)
	mux.HandleFunc("POST /api/views", s.saveViewHandler)
	mux.HandleFunc("POST /api/views/suggest", s.suggestHandler)
	mux.HandleFunc("GET /api/views/{id}/query", s.viewQueryHandler)
	mux.HandleFunc("DELETE /api/views/{id}", s.deleteViewHandler)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

// pageResponse is one page of rows plus the canonical URL state that
// produced it
type pageResponse struct {
	filter.Page
	Columns []string          `json:"columns"`
	Params  map[string]string `json:"params"`
}

func (s *Server) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	state := urlstate.FromValues(r.URL.Query())

	rows, columns, err := s.source.Rows(r.Context())
	if err != nil {
		s.log.WithError(err).Error("failed to read rows")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	page := s.evaluator.Run(rows, state)
	visible := filter.ResolveColumns(columns, state)
	page.Rows = filter.Project(page.Rows, visible)

	writeJSON(w, http.StatusOK, pageResponse{
		Page:    page,
		Columns: visible,
		Params:  urlstate.Serialize(state),
	})
}

func (s *Server) createRecordHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w) {
		return
	}
	var in records.Input
	if !decodeBody(w, r, &in) {
		return
	}
	res := s.store.Create(in)
	writeResult(w, http.StatusCreated, res.Success, res)
}

func (s *Server) updateRecordHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w) {
		return
	}
	var in records.Input
	if !decodeBody(w, r, &in) {
		return
	}
	res := s.store.UpdateOne(r.PathValue("id"), in)
	if !res.Success && res.Error == "Record not found" {
		writeJSON(w, http.StatusNotFound, res)
		return
	}
	writeResult(w, http.StatusOK, res.Success, res)
}

type bulkRequest struct {
	IDs []string `json:"ids"`
	records.Input
}

func (s *Server) updateRecordsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w) {
		return
	}
	var req bulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := s.store.UpdateMany(req.IDs, req.Input)
	writeResult(w, http.StatusOK, res.Success, res)
}

func (s *Server) deleteRecordsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w) {
		return
	}
	var req bulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := s.store.DeleteMany(req.IDs)
	writeResult(w, http.StatusOK, res.Success, res)
}

func (s *Server) operatorsHandler(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("variant"); v != "" {
		ops := filter.OperatorsFor(models.FilterVariant(v))
		if ops == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown variant %q", v))
			return
		}
		writeJSON(w, http.StatusOK, ops)
		return
	}

	all := make(map[models.FilterVariant][]filter.OperatorOption)
	for _, v := range filter.Variants() {
		all[v] = filter.OperatorsFor(v)
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) listViewsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		if err := s.views.Load(r.Context()); err != nil {
			writeJSON(w, http.StatusBadGateway, models.Fail[[]models.SavedView](err.Error()))
			return
		}
	}
	writeJSON(w, http.StatusOK, models.Ok(s.views.Views()))
}

type saveViewRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	State       models.TableQueryState `json:"state"`
	ViewID      string                 `json:"viewId"`
}

func (s *Server) saveViewHandler(w http.ResponseWriter, r *http.Request) {
	req := saveViewRequest{State: models.NewTableQueryState()}
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := s.views.Save(r.Context(), views.SaveInput{
		Name:        req.Name,
		Description: req.Description,
		State:       req.State,
		ViewID:      req.ViewID,
	})
	if err != nil {
		writeJSON(w, statusFor(err), models.Fail[models.SavedView](err.Error()))
		return
	}

	status := http.StatusCreated
	if req.ViewID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, models.Ok(view))
}

func (s *Server) deleteViewHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeJSON(w, statusFor(err), models.Fail[struct{}](err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, models.ActionResult[struct{}]{Success: true})
}

// viewQueryHandler returns the URL query string that applies a view
func (s *Server) viewQueryHandler(w http.ResponseWriter, r *http.Request) {
	view, ok := s.views.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, views.ErrNotFound)
		return
	}

	values := url.Values{}
	urlstate.Write(values, view.State)
	writeJSON(w, http.StatusOK, map[string]string{"query": values.Encode()})
}

type suggestRequest struct {
	State models.TableQueryState `json:"state"`
}

func (s *Server) suggestHandler(w http.ResponseWriter, r *http.Request) {
	req := suggestRequest{State: models.NewTableQueryState()}
	if !decodeBody(w, r, &req) {
		return
	}

	_, columns, err := s.source.Rows(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	summary, ok := views.Summarize(s.views.TableKey(), req.State, columns)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("nothing to name: the state has no filters, sorting or column changes"))
		return
	}

	suggestion, err := s.suggester.Suggest(r.Context(), summary)
	if err != nil {
		s.log.WithError(err).Warn("could not draft a suggested view name")
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (s *Server) writable(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusMethodNotAllowed, errors.New("records are read only"))
		return false
	}
	return true
}

func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, views.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, okStatus int, success bool, payload any) {
	if success {
		writeJSON(w, okStatus, payload)
		return
	}
	writeJSON(w, http.StatusBadRequest, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
