package records

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// Store keeps records in memory
type Store struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
	log     logrus.FieldLogger
}

// NewStore creates a store holding a copy of records
func NewStore(records []Record, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		records: append([]Record{}, records...),
		now:     time.Now,
		log:     log,
	}
}

// All returns a copy of every record
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.records...)
}

// Rows returns every record as a row; it makes the store a Source
func (s *Store) Rows(ctx context.Context) ([]models.Row, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]models.Row, len(s.records))
	for i, r := range s.records {
		rows[i] = r.Row()
	}
	return rows, append([]string{}, Columns...), nil
}

// Create validates and appends a new record
func (s *Store) Create(in Input) models.ActionResult[Record] {
	if err := in.validateFull(); err != nil {
		return s.fail(err, "Failed to create record")
	}

	now := s.now().UTC()
	r := Record{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	in.apply(&r)

	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()

	s.log.WithField("record_id", r.ID).Info("created record")
	return models.Ok(r)
}

// UpdateOne replaces the title and description of one record
func (s *Store) UpdateOne(id string, in Input) models.ActionResult[Record] {
	if strings.TrimSpace(id) == "" {
		return s.fail(&models.ValidationError{Field: "id", Message: "ID is required"}, "")
	}
	if err := in.validateFull(); err != nil {
		return s.fail(err, "Failed to update record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		in.apply(&s.records[i])
		s.records[i].UpdatedAt = s.now().UTC()
		return models.Ok(s.records[i])
	}
	return models.Fail[Record]("Record not found")
}

// UpdateMany applies the set fields of in to every listed record.
// Unknown ids are skipped.
func (s *Store) UpdateMany(ids []string, in Input) models.ActionResult[[]Record] {
	if len(ids) == 0 {
		return failMany[[]Record](s, &models.ValidationError{Field: "ids", Message: "At least one ID is required"})
	}
	if err := in.validatePartial(); err != nil {
		return failMany[[]Record](s, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := []Record{}
	now := s.now().UTC()
	for _, id := range ids {
		for i := range s.records {
			if s.records[i].ID == id {
				in.apply(&s.records[i])
				s.records[i].UpdatedAt = now
				updated = append(updated, s.records[i])
				break
			}
		}
	}
	return models.Ok(updated)
}

// DeleteMany removes every listed record and reports how many went away
func (s *Store) DeleteMany(ids []string) models.ActionResult[[]Record] {
	if len(ids) == 0 {
		return models.Fail[[]Record]("No IDs provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	deleted := []Record{}
	kept := s.records[:0]
	for _, r := range s.records {
		if remove[r.ID] {
			deleted = append(deleted, r)
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept

	s.log.WithField("count", len(deleted)).Info("deleted records")
	res := models.Ok(deleted)
	res.DeletedCount = len(deleted)
	return res
}

func (s *Store) fail(err error, fallback string) models.ActionResult[Record] {
	return failMany[Record](s, err, fallback)
}

func failMany[T any](s *Store, err error, fallback ...string) models.ActionResult[T] {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return models.Fail[T](verr.Message)
	}
	s.log.WithError(err).Error("record action failed")
	if len(fallback) > 0 && fallback[0] != "" {
		return models.Fail[T](fallback[0])
	}
	return models.Fail[T](err.Error())
}
