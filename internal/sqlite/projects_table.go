// This file implements the projects table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/hook/pkg/types"
)

// Compile-time interface check: projectsTable must implement ProjectTable.
var _ types.ProjectTable = (*projectsTable)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// projectsTable implements ProjectTable over the projects table. When tx is
// set every statement runs inside that transaction.
type projectsTable struct {
	backend *Backend
	q       querier
	tx      *sql.Tx
}

// ListAll returns every project in insertion order.
func (pt *projectsTable) ListAll() ([]types.Project, error) {
	return pt.query("SELECT " + projectColumns + " FROM projects ORDER BY rowid")
}

// Insert appends p. Collisions on name, dir or special return ErrDuplicateKey.
func (pt *projectsTable) Insert(p types.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := pt.q.Exec(
		`INSERT INTO projects (priority, name, "desc", dir, special) VALUES (?, ?, ?, ?, ?)`,
		p.Priority, p.Name, p.Description, nullString(p.Directory), nullString(string(p.Special)),
	)
	if err != nil {
		return fmt.Errorf("inserting project %q: %w", p.Name, classify(err))
	}
	return nil
}

// ClearAll deletes every row.
func (pt *projectsTable) ClearAll() error {
	if _, err := pt.q.Exec("DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}
	return nil
}

// FindByName returns the project with the given name or ErrNotFound.
func (pt *projectsTable) FindByName(name string) (types.Project, error) {
	return pt.queryOne("SELECT "+projectColumns+" FROM projects WHERE name = ?", name)
}

// FindByDirectory returns the project claiming dir or ErrNotFound.
func (pt *projectsTable) FindByDirectory(dir string) (types.Project, error) {
	if dir == "" {
		return types.Project{}, types.ErrNotFound
	}
	return pt.queryOne("SELECT "+projectColumns+" FROM projects WHERE dir = ?", dir)
}

// FindByTag returns the holder of tag or ErrNotFound.
func (pt *projectsTable) FindByTag(tag types.Special) (types.Project, error) {
	if tag == types.SpecialNone {
		return types.Project{}, types.ErrNotFound
	}
	if !tag.Valid() {
		return types.Project{}, fmt.Errorf("%w: %q", types.ErrInvalidSpecial, string(tag))
	}
	return pt.queryOne("SELECT "+projectColumns+" FROM projects WHERE special = ?", string(tag))
}

// QueryTagged returns all tagged projects ordered by priority.
func (pt *projectsTable) QueryTagged() ([]types.Project, error) {
	return pt.query("SELECT " + projectColumns + " FROM projects WHERE special IS NOT NULL ORDER BY priority, rowid")
}

// UpdateDirectory points the named project at dir. An empty dir clears it.
func (pt *projectsTable) UpdateDirectory(name, dir string) error {
	p := types.Project{Name: name, Directory: dir}
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := pt.q.Exec("UPDATE projects SET dir = ? WHERE name = ?", nullString(dir), name)
	if err != nil {
		return fmt.Errorf("updating directory of %q: %w", name, classify(err))
	}
	return requireAffected(res, name)
}

// SetSpecial writes tag on the named project without touching other rows.
func (pt *projectsTable) SetSpecial(name string, tag types.Special) error {
	if !tag.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidSpecial, string(tag))
	}
	res, err := pt.q.Exec("UPDATE projects SET special = ? WHERE name = ?", nullString(string(tag)), name)
	if err != nil {
		return fmt.Errorf("setting %s on %q: %w", tag, name, classify(err))
	}
	return requireAffected(res, name)
}

// Atomically runs fn inside one transaction. Nested calls join the outer one.
func (pt *projectsTable) Atomically(fn func(types.ProjectTable) error) error {
	if pt.tx != nil {
		return fn(pt)
	}

	tx, err := pt.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&projectsTable{backend: pt.backend, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (pt *projectsTable) query(query string, args ...any) ([]types.Project, error) {
	rows, err := pt.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		p, err := hydrateProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (pt *projectsTable) queryOne(query string, args ...any) (types.Project, error) {
	p, err := hydrateProject(pt.q.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Project{}, types.ErrNotFound
	}
	return p, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// hydrateProject converts one row into a Project. sql.ErrNoRows is returned
// unwrapped so callers can map it to ErrNotFound.
func hydrateProject(row scanner) (types.Project, error) {
	var (
		p       types.Project
		dir     sql.NullString
		special sql.NullString
	)
	err := row.Scan(&p.Priority, &p.Name, &p.Description, &dir, &special)
	if err == sql.ErrNoRows {
		return types.Project{}, err
	}
	if err != nil {
		return types.Project{}, fmt.Errorf("scanning project: %w", err)
	}
	p.Directory = dir.String
	p.Special = types.Special(special.String)
	return p, nil
}

func requireAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", types.ErrNotFound, name)
	}
	return nil
}

// nullString stores empty optional fields as NULL so the UNIQUE constraints
// only apply to present values.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
