// Package records is the demo data set the table engine runs against: a
// small CRUD store plus row sources that feed the filter evaluator.
package records

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// ErrNotFound is returned when a record id does not exist
var ErrNotFound = errors.New("record not found")

const maxFieldLength = 255

// Columns are the record columns in display order
var Columns = []string{"id", "title", "description", "created_at", "updated_at"}

// Record is one row of the demo table
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Row converts the record into a filterable row
func (r Record) Row() models.Row {
	return models.Row{
		"id":          r.ID,
		"title":       r.Title,
		"description": r.Description,
		"created_at":  r.CreatedAt,
		"updated_at":  r.UpdatedAt,
	}
}

// Input carries the fields a create or update may set. Nil fields are left
// unchanged by bulk updates.
type Input struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// NewInput builds an input with both fields set
func NewInput(title, description string) Input {
	return Input{Title: &title, Description: &description}
}

// validateFull requires both fields
func (in Input) validateFull() error {
	if err := validateField("title", "Title", in.Title); err != nil {
		return err
	}
	return validateField("description", "Description", in.Description)
}

// validatePartial checks only the fields that are set
func (in Input) validatePartial() error {
	if in.Title != nil {
		if err := validateField("title", "Title", in.Title); err != nil {
			return err
		}
	}
	if in.Description != nil {
		return validateField("description", "Description", in.Description)
	}
	return nil
}

func validateField(field, label string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return &models.ValidationError{Field: field, Message: label + " is required"}
	}
	if utf8.RuneCountInString(*v) > maxFieldLength {
		return &models.ValidationError{Field: field, Message: label + " must be less than 255 characters"}
	}
	return nil
}

func (in Input) apply(r *Record) {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
}

// Seed returns the initial demo records
func Seed() []Record {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	return []Record{
		{
			ID:          "1",
			Title:       "Getting Started with React",
			Description: "This is a description of the Getting Started with React",
			CreatedAt:   at("2024-01-15T10:30:00Z"),
			UpdatedAt:   at("2024-01-15T10:30:00Z"),
		},
		{
			ID:          "2",
			Title:       "Advanced TypeScript Patterns",
			Description: "This is a description of the Advanced TypeScript Patterns",
			CreatedAt:   at("2024-01-16T14:20:00Z"),
			UpdatedAt:   at("2024-01-17T09:15:00Z"),
		},
		{
			ID:          "3",
			Title:       "Building Scalable APIs",
			Description: "This is a description of the Building Scalable APIs",
			CreatedAt:   at("2024-01-18T16:45:00Z"),
			UpdatedAt:   at("2024-01-18T16:45:00Z"),
		},
	}
}
