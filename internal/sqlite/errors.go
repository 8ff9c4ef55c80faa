package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/hook/pkg/types"
)

// classify maps SQLite constraint failures onto the types sentinels.
// UNIQUE violations become ErrDuplicateKey naming the column; CHECK and
// NOT NULL violations become ErrInvalidData. Other errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", types.ErrDuplicateKey, uniqueColumn(msg))
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %s", types.ErrInvalidData, msg)
		}
	}

	// Fallback for drivers or builds without extended result codes.
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", types.ErrDuplicateKey, uniqueColumn(msg))
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %s", types.ErrInvalidData, msg)
	}
	return err
}

// uniqueColumn extracts "projects.name" from
// "constraint failed: UNIQUE constraint failed: projects.name (2067)".
func uniqueColumn(msg string) string {
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return msg
	}
	col := msg[i+len(marker):]
	if j := strings.Index(col, " ("); j >= 0 {
		col = col[:j]
	}
	return col
}
