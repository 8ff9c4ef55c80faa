// Package sqlite implements the SQLite record store for the hook tracker.
package sqlite

// Schema DDL. Uniqueness of name, dir and special is enforced here so a
// colliding insert fails in the database, not only in application logic.
// "desc" is a keyword and is quoted everywhere it appears.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    priority INTEGER NOT NULL CHECK (typeof(priority) = 'integer'),
    name TEXT NOT NULL UNIQUE,
    "desc" TEXT NOT NULL,
    dir TEXT UNIQUE,
    special TEXT UNIQUE CHECK (special IN ('MARKED', 'HOOKED'))
);`
)

// Index DDL for common queries.
const (
	idxProjectsPriority = `CREATE INDEX IF NOT EXISTS idx_projects_priority ON projects(priority);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createProjects,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxProjectsPriority,
}

// projectColumns is the column list shared by every SELECT.
const projectColumns = `priority, name, "desc", dir, special`
