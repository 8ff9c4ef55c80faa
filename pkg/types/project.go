package types

import (
	"errors"
	"fmt"
	"strings"
)

// Special is the exclusive tag a project may carry. The zero value means the
// project carries no tag.
type Special string

// Special tags. At most one project holds each of MARKED and HOOKED.
const (
	SpecialNone   Special = ""
	SpecialMarked Special = "MARKED"
	SpecialHooked Special = "HOOKED"
)

// ParseSpecial converts a stored or user-supplied tag name into a Special.
// Matching is case-insensitive; the empty string yields SpecialNone.
func ParseSpecial(s string) (Special, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return SpecialNone, nil
	case string(SpecialMarked):
		return SpecialMarked, nil
	case string(SpecialHooked):
		return SpecialHooked, nil
	default:
		return SpecialNone, fmt.Errorf("%w: %q", ErrInvalidSpecial, s)
	}
}

// Valid reports whether s is SpecialNone or one of the known tags.
func (s Special) Valid() bool {
	return s == SpecialNone || s == SpecialMarked || s == SpecialHooked
}

// String returns the tag name, or "none" for SpecialNone.
func (s Special) String() string {
	if s == SpecialNone {
		return "none"
	}
	return string(s)
}

// Project is the single persisted entity: a task or a tracked directory.
type Project struct {
	Priority    int     `json:"priority"`            // Ordering key, not unique.
	Name        string  `json:"name"`                // Unique identity key.
	Description string  `json:"description"`         // Free text.
	Directory   string  `json:"directory,omitempty"` // Absolute path; empty when absent. Unique when present.
	Special     Special `json:"special,omitempty"`   // Exclusive tag; empty when absent.
}

// HasDirectory reports whether the project claims a directory.
func (p Project) HasDirectory() bool {
	return p.Directory != ""
}

// Validate checks the fields that the text round trip cannot carry.
// Names must be non-empty; no field may contain the field delimiter or a
// line break, or start or end with white space.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" || !fieldText(p.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, p.Name)
	}
	if !fieldText(p.Description) {
		return fmt.Errorf("%w: description of %q has a delimiter or surrounding space", ErrInvalidData, p.Name)
	}
	if !fieldText(p.Directory) {
		return fmt.Errorf("%w: directory of %q has a delimiter or surrounding space", ErrInvalidData, p.Name)
	}
	if !p.Special.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSpecial, string(p.Special))
	}
	return nil
}

// Entity errors.
var (
	ErrNotFound       = errors.New("project not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidData    = errors.New("invalid project data")
	ErrInvalidSpecial = errors.New("invalid special tag")
)

// Workflow errors.
var (
	ErrMalformedLine = errors.New("malformed line")
	ErrEditorAborted = errors.New("editor aborted")
	ErrTagBlocked    = errors.New("tag blocked by policy")
)

// fieldText reports whether s survives the comma-separated text form, which
// splits on commas and line breaks and trims every field.
func fieldText(s string) bool {
	return !strings.ContainsAny(s, ",\r\n") && strings.TrimSpace(s) == s
}
