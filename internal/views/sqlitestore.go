package views

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

// SQLiteStore keeps saved views in a SQLite database, the query state
// stored as a JSON column
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log logrus.FieldLogger
}

// NewSQLiteStore opens the database at path and creates the schema.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one connection, so ":memory:" is a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, now: time.Now, log: logrus.StandardLogger()}, nil
}

// SetLogger sets where malformed stored views are reported
func (s *SQLiteStore) SetLogger(log logrus.FieldLogger) {
	s.log = log
}

// List returns the views of a table, most recently updated first
func (s *SQLiteStore) List(ctx context.Context, tableKey string) ([]models.SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_key, name, description, state, created_at, updated_at
		FROM saved_views
		WHERE table_key = ?
		ORDER BY updated_at DESC`, tableKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer func() { _ = rows.Close() }()

	views := []models.SavedView{}
	for rows.Next() {
		v, err := s.scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}

	// RFC3339 text with trailing zeros trimmed does not sort lexically
	sortByUpdated(views)
	return views, nil
}

// Save creates a view, or updates the one named by req.ViewID
func (s *SQLiteStore) Save(ctx context.Context, req SaveRequest) (models.SavedView, error) {
	req, err := req.normalise()
	if err != nil {
		return models.SavedView{}, err
	}

	state, err := json.Marshal(req.State)
	if err != nil {
		return models.SavedView{}, fmt.Errorf("failed to encode view state: %w", err)
	}
	now := s.now().UTC()

	if req.ViewID != "" {
		res, err := s.db.ExecContext(ctx, `
			UPDATE saved_views
			SET name = ?, description = ?, state = ?, updated_at = ?
			WHERE id = ? AND table_key = ?`,
			req.Name, req.Description, string(state), now.Format(timeLayout),
			req.ViewID, req.TableKey,
		)
		if err != nil {
			return models.SavedView{}, fmt.Errorf("failed to update view: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.SavedView{}, fmt.Errorf("view '%s': %w", req.ViewID, ErrNotFound)
		}
		return s.get(ctx, req.ViewID)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_views
		(id, table_key, name, description, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, req.TableKey, req.Name, req.Description, string(state),
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return models.SavedView{}, fmt.Errorf("failed to insert view: %w", err)
	}
	return s.get(ctx, id)
}

// Delete removes a view by id
func (s *SQLiteStore) Delete(ctx context.Context, viewID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, viewID)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("view '%s': %w", viewID, ErrNotFound)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, id string) (models.SavedView, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, table_key, name, description, state, created_at, updated_at
		FROM saved_views
		WHERE id = ?`, id)

	v, err := s.scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavedView{}, fmt.Errorf("view '%s': %w", id, ErrNotFound)
	}
	return v, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanView(row scanner) (models.SavedView, error) {
	var v models.SavedView
	var state, createdAt, updatedAt string

	err := row.Scan(&v.ID, &v.TableKey, &v.Name, &v.Description, &state, &createdAt, &updatedAt)
	if err != nil {
		return models.SavedView{}, err
	}

	v.State = decodeState(s.log, v.ID, func(st *models.TableQueryState) error {
		return json.Unmarshal([]byte(state), st)
	})
	v.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	v.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	return v, nil
}
