package types

import "errors"

// Store defines the interface for attaching to a project backend.
// Callers attach with a Config, use the project table, and detach when done.
type Store interface {
	// Attach opens the backend described by config and ensures the schema
	// exists. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// Projects returns the project table.
	// Returns ErrStoreDetached if the store is not attached.
	Projects() (ProjectTable, error)
}

// ProjectTable is raw CRUD over the project set. Uniqueness of name,
// directory and special is enforced by the backend and surfaces as
// ErrDuplicateKey.
type ProjectTable interface {
	// ListAll returns every stored project in insertion order.
	ListAll() ([]Project, error)

	// Insert appends a project. Returns ErrDuplicateKey if its name,
	// directory or special collides with an existing row.
	Insert(p Project) error

	// ClearAll removes every project.
	ClearAll() error

	// FindByName, FindByDirectory and FindByTag are point lookups.
	// Each returns ErrNotFound on a miss.
	FindByName(name string) (Project, error)
	FindByDirectory(dir string) (Project, error)
	FindByTag(tag Special) (Project, error)

	// QueryTagged returns all projects holding a tag, ordered by priority.
	QueryTagged() ([]Project, error)

	// UpdateDirectory sets the directory of the named project.
	// Returns ErrNotFound if no such project exists.
	UpdateDirectory(name, dir string) error

	// SetSpecial sets (or, with SpecialNone, clears) the tag of the named
	// project. It does not clear other holders; see the tags package for
	// the exclusivity protocol. Returns ErrNotFound if no such project exists.
	SetSpecial(name string, tag Special) error

	// Atomically runs fn against a table bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Nested calls reuse the outer transaction.
	Atomically(fn func(ProjectTable) error) error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
