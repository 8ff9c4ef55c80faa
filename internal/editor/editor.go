// Package editor hands a text buffer to the user's editor and returns the
// edited text.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mesh-intelligence/hook/pkg/types"
)

// DefaultProgram is used when neither the configuration nor the environment
// names an editor.
const DefaultProgram = "vi"

// Editor edits a whole text buffer. Implementations return an error wrapping
// types.ErrEditorAborted when the user cancels or the editor fails.
type Editor interface {
	Edit(ctx context.Context, text string) (string, error)
}

// Func adapts an ordinary function to the Editor interface.
type Func func(ctx context.Context, text string) (string, error)

// Edit calls f.
func (f Func) Edit(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Resolve picks the editor command: the configured value, then $VISUAL,
// then $EDITOR, then DefaultProgram.
func Resolve(configured string) string {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return DefaultProgram
}

// Command runs an external program on a temporary file holding the buffer.
type Command struct {
	// Program is the editor command line, e.g. "vim" or "code --wait".
	// The temporary file path is appended as the last argument.
	Program string

	// TempDir holds the temporary file; empty means os.TempDir().
	TempDir string

	// Stdin, Stdout and Stderr are attached to the editor process.
	// Nil values fall back to the process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Compile-time interface check: Command must implement Editor.
var _ Editor = (*Command)(nil)

// Edit writes text to a temporary file, runs the editor on it and reads the
// result back. The file is removed afterwards.
func (c *Command) Edit(ctx context.Context, text string) (string, error) {
	argv := strings.Fields(c.Program)
	if len(argv) == 0 {
		return "", fmt.Errorf("%w: no editor configured", types.ErrEditorAborted)
	}

	path, err := writeTemp(c.TempDir, text)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = orReader(c.Stdin, os.Stdin)
	cmd.Stdout = orWriter(c.Stdout, os.Stdout)
	cmd.Stderr = orWriter(c.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s exited with status %d", types.ErrEditorAborted, argv[0], exitErr.ExitCode())
		}
		return "", fmt.Errorf("%w: running %s: %v", types.ErrEditorAborted, argv[0], err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited buffer: %w", err)
	}
	return string(edited), nil
}

// writeTemp creates the buffer file with a .txt suffix so editors pick a
// plain-text mode.
func writeTemp(dir, text string) (string, error) {
	f, err := os.CreateTemp(dir, "hook-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return name, nil
}

func orReader(r, fallback io.Reader) io.Reader {
	if r == nil {
		return fallback
	}
	return r
}

func orWriter(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
