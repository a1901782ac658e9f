package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a person record does not exist.
var ErrNotFound = errors.New("person not found")

// Person statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Person is one identity record together with its persisted workflow state.
// StateJSON holds the serialized flow.State; the store round-trips it as an
// opaque string.
type Person struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Surname    string    `json:"surname"`
	Phone      string    `json:"phone"`
	PhotoPath  string    `json:"photo_path,omitempty"`
	Status     string    `json:"status"`
	Summary    string    `json:"summary,omitempty"`
	StateJSON  string    `json:"state_json,omitempty"`
	ReportText string    `json:"report_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists person records. The workflow core never touches a Store
// directly; the HTTP/task layer owns the read-run-write cycle.
type Store interface {
	// Create inserts a new person and returns its ID. Status defaults to
	// active; timestamps are set by the store.
	Create(ctx context.Context, p *Person) (int64, error)

	// Get returns the person with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Person, error)

	// List returns people ordered most-recently-updated first. Archived
	// rows are included only when includeArchived is set.
	List(ctx context.Context, includeArchived bool) ([]*Person, error)

	// Update rewrites the mutable fields of the person identified by p.ID
	// and bumps its updated_at timestamp.
	Update(ctx context.Context, p *Person) error

	// Archive marks the person archived without deleting the row.
	Archive(ctx context.Context, id int64) error

	// Delete removes the person entirely.
	Delete(ctx context.Context, id int64) error

	// FindExisting returns an active person whose identity fields match
	// the given values, or nil when there is none. It is used to avoid
	// creating duplicate records for the same search subject.
	FindExisting(ctx context.Context, firstName, lastName, surname, phone string) (*Person, error)

	// Close releases the store's resources.
	Close() error
}

// MatchesIdentity reports whether the person's identity fields equal the
// given values after trimming. All-empty inputs never match, so a blank form
// cannot alias every blank record.
func (p *Person) MatchesIdentity(firstName, lastName, surname, phone string) bool {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	surname = strings.TrimSpace(surname)
	phone = strings.TrimSpace(phone)
	if firstName == "" && lastName == "" && surname == "" && phone == "" {
		return false
	}
	return strings.TrimSpace(p.FirstName) == firstName &&
		strings.TrimSpace(p.LastName) == lastName &&
		strings.TrimSpace(p.Surname) == surname &&
		strings.TrimSpace(p.Phone) == phone
}
