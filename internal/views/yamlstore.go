package views

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// YAMLStore keeps saved views of every table in a single YAML file
type YAMLStore struct {
	mu    sync.Mutex
	path  string
	views []models.SavedView
	now   func() time.Time
	log   logrus.FieldLogger
}

// yamlView is the on-disk shape of a view; the state is decoded on its own
// so a malformed state only costs that view its settings
type yamlView struct {
	ID          string    `yaml:"id"`
	TableKey    string    `yaml:"table_key"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	State       yaml.Node `yaml:"state"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// NewYAMLStore opens the store at path, loading it if the file exists.
// A file that is not a YAML list of views is moved aside to path.corrupt
// and the store starts empty.
func NewYAMLStore(path string) (*YAMLStore, error) {
	return NewYAMLStoreWithLogger(path, logrus.StandardLogger())
}

// NewYAMLStoreWithLogger is NewYAMLStore reporting malformed content to log
func NewYAMLStoreWithLogger(path string, log logrus.FieldLogger) (*YAMLStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &YAMLStore{
		path:  path,
		views: []models.SavedView{},
		now:   time.Now,
		log:   log,
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load saved views: %w", err)
		}
	}

	return s, nil
}

func (s *YAMLStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read saved views file: %w", err)
	}

	var entries []yaml.Node
	if err := yaml.Unmarshal(data, &entries); err != nil {
		aside := s.path + ".corrupt"
		s.log.WithError(err).WithField("moved_to", aside).Warn("saved views file is malformed, starting empty")
		if err := os.Rename(s.path, aside); err != nil {
			return fmt.Errorf("failed to move malformed views file aside: %w", err)
		}
		return nil
	}

	for i := range entries {
		var raw yamlView
		if err := entries[i].Decode(&raw); err != nil || raw.ID == "" {
			s.log.WithError(err).WithField("line", entries[i].Line).Warn("skipping unreadable saved view")
			continue
		}
		s.views = append(s.views, models.SavedView{
			ID:          raw.ID,
			TableKey:    raw.TableKey,
			Name:        raw.Name,
			Description: raw.Description,
			State: decodeState(s.log, raw.ID, func(st *models.TableQueryState) error {
				if raw.State.IsZero() {
					return nil
				}
				return raw.State.Decode(st)
			}),
			CreatedAt: raw.CreatedAt,
			UpdatedAt: raw.UpdatedAt,
		})
	}
	return nil
}

func (s *YAMLStore) flush() error {
	data, err := yaml.Marshal(s.views)
	if err != nil {
		return fmt.Errorf("failed to marshal saved views: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create views directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write saved views file: %w", err)
	}
	return nil
}

// List returns the views of a table, most recently updated first
func (s *YAMLStore) List(ctx context.Context, tableKey string) ([]models.SavedView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	views := []models.SavedView{}
	for _, v := range s.views {
		if v.TableKey == tableKey {
			v.State = v.State.Clone()
			views = append(views, v)
		}
	}
	sortByUpdated(views)
	return views, nil
}

// Save creates a view, or updates the one named by req.ViewID
func (s *YAMLStore) Save(ctx context.Context, req SaveRequest) (models.SavedView, error) {
	if err := ctx.Err(); err != nil {
		return models.SavedView{}, err
	}
	req, err := req.normalise()
	if err != nil {
		return models.SavedView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if req.ViewID != "" {
		for i, v := range s.views {
			if v.ID != req.ViewID || v.TableKey != req.TableKey {
				continue
			}
			prev := s.views[i]
			s.views[i].Name = req.Name
			s.views[i].Description = req.Description
			s.views[i].State = req.State.Clone()
			s.views[i].UpdatedAt = now
			if err := s.flush(); err != nil {
				s.views[i] = prev
				return models.SavedView{}, fmt.Errorf("failed to save view: %w", err)
			}
			saved := s.views[i]
			saved.State = saved.State.Clone()
			return saved, nil
		}
		return models.SavedView{}, fmt.Errorf("view '%s': %w", req.ViewID, ErrNotFound)
	}

	view := models.SavedView{
		ID:          uuid.New().String(),
		TableKey:    req.TableKey,
		Name:        req.Name,
		Description: req.Description,
		State:       req.State.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.views = append(s.views, view)

	if err := s.flush(); err != nil {
		s.views = s.views[:len(s.views)-1]
		return models.SavedView{}, fmt.Errorf("failed to save view: %w", err)
	}
	view.State = view.State.Clone()
	return view, nil
}

// Delete removes a view by id
func (s *YAMLStore) Delete(ctx context.Context, viewID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, v := range s.views {
		if v.ID == viewID {
			prev := s.views
			s.views = append(append([]models.SavedView{}, s.views[:i]...), s.views[i+1:]...)
			if err := s.flush(); err != nil {
				s.views = prev
				return fmt.Errorf("failed to save views after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("view '%s': %w", viewID, ErrNotFound)
}
