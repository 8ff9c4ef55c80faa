package paths

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoProjectName is returned when the working directory has no usable
// final path segment (for example the filesystem root).
var ErrNoProjectName = errors.New("cannot derive a project name from directory")

// Getwd reports the current working directory. It matches os.Getwd so tests
// and callers can substitute their own.
type Getwd func() (string, error)

// WorkingProject returns the absolute, cleaned working directory and the
// default project name derived from its final path segment.
func WorkingProject(getwd Getwd) (name, dir string, err error) {
	if getwd == nil {
		getwd = os.Getwd
	}
	wd, err := getwd()
	if err != nil {
		return "", "", err
	}
	dir, err = filepath.Abs(wd)
	if err != nil {
		return "", "", err
	}
	name = ProjectName(dir)
	if name == "" {
		return "", dir, ErrNoProjectName
	}
	return name, dir, nil
}

// ProjectName returns the final path segment of dir, or "" when dir has none.
func ProjectName(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return ""
	}
	return base
}
