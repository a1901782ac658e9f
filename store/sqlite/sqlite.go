package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/search4people/store"
)

// SqlitePersonStore implements store.Store on a SQLite database, matching
// the schema the original deployment used.
type SqlitePersonStore struct {
	db *sql.DB
}

var _ store.Store = (*SqlitePersonStore)(nil)

// Options configures the SQLite connection.
type Options struct {
	// Path is the database file path. ":memory:" works for tests.
	Path string
}

// NewSqlitePersonStore opens (and if necessary initializes) the database.
func NewSqlitePersonStore(opts Options) (*SqlitePersonStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	s := &SqlitePersonStore{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlitePersonStore) initSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS people (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT,
			last_name TEXT,
			surname TEXT,
			phone TEXT,
			photo_path TEXT,
			status TEXT DEFAULT 'active',
			summary TEXT,
			state_json TEXT,
			report_text TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_people_status ON people (status);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlitePersonStore) Close() error {
	return s.db.Close()
}

// Create inserts a new person.
func (s *SqlitePersonStore) Create(ctx context.Context, p *store.Person) (int64, error) {
	now := time.Now().UTC()
	status := p.Status
	if status == "" {
		status = store.StatusActive
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO people (first_name, last_name, surname, phone, photo_path, status, summary, state_json, report_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.Surname, p.Phone, p.PhotoPath, status, p.Summary, p.StateJSON, p.ReportText, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

const personColumns = `id, first_name, last_name, surname, phone, photo_path, status, summary, state_json, report_text, created_at, updated_at`

func scanPerson(row interface{ Scan(dest ...any) error }) (*store.Person, error) {
	var p store.Person
	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Surname, &p.Phone, &p.PhotoPath,
		&p.Status, &p.Summary, &p.StateJSON, &p.ReportText, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns the person with the given ID.
func (s *SqlitePersonStore) Get(ctx context.Context, id int64) (*store.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load person: %w", err)
	}
	return p, nil
}

// List returns people ordered most recently updated first.
func (s *SqlitePersonStore) List(ctx context.Context, includeArchived bool) ([]*store.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people ORDER BY updated_at DESC, id DESC`
	if !includeArchived {
		query = `SELECT ` + personColumns + ` FROM people WHERE status = 'active' ORDER BY updated_at DESC, id DESC`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []*store.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person row: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating person rows: %w", err)
	}
	return people, nil
}

// Update rewrites the mutable fields of an existing person.
func (s *SqlitePersonStore) Update(ctx context.Context, p *store.Person) error {
	status := p.Status
	if status == "" {
		status = store.StatusActive
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE people
		SET first_name = ?, last_name = ?, surname = ?, phone = ?, photo_path = ?,
		    status = ?, summary = ?, state_json = ?, report_text = ?, updated_at = ?
		WHERE id = ?`,
		p.FirstName, p.LastName, p.Surname, p.Phone, p.PhotoPath,
		status, p.Summary, p.StateJSON, p.ReportText, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	return requireRowAffected(res)
}

// Archive marks the person archived.
func (s *SqlitePersonStore) Archive(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE people SET status = ?, updated_at = ? WHERE id = ?`,
		store.StatusArchived, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to archive person: %w", err)
	}
	return requireRowAffected(res)
}

// Delete removes the person.
func (s *SqlitePersonStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return requireRowAffected(res)
}

// FindExisting returns an active person matching the identity fields.
func (s *SqlitePersonStore) FindExisting(ctx context.Context, firstName, lastName, surname, phone string) (*store.Person, error) {
	people, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		if p.MatchesIdentity(firstName, lastName, surname, phone) {
			return p, nil
		}
	}
	return nil, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
