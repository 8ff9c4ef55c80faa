// Output rendering for hook CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hook/pkg/types"
)

// styles are the lipgloss styles for project lines. Color is dropped when
// the output is not a terminal.
type styles struct {
	priority lipgloss.Style
	name     lipgloss.Style
	dir      lipgloss.Style
	hooked   lipgloss.Style
	marked   lipgloss.Style
	warn     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		priority: r.NewStyle().Foreground(lipgloss.Color("8")).Width(4).Align(lipgloss.Right),
		name:     r.NewStyle().Bold(true),
		dir:      r.NewStyle().Foreground(lipgloss.Color("6")),
		hooked:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		marked:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// printer writes command results as styled text or JSON.
type printer struct {
	w      io.Writer
	json   bool
	styles styles
}

func (a *app) printer(cmd *cobra.Command) *printer {
	out := cmd.OutOrStdout()
	return &printer{
		w:      out,
		json:   a.flags.jsonMode,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// writeJSON prints v as indented JSON.
func (p *printer) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// projects prints one line per project, or a JSON array.
func (p *printer) projects(list []types.Project) error {
	if p.json {
		if list == nil {
			list = []types.Project{}
		}
		return p.writeJSON(list)
	}
	for _, project := range list {
		fmt.Fprintln(p.w, p.line(project))
	}
	return nil
}

// project prints a single project.
func (p *printer) project(project types.Project) error {
	if p.json {
		return p.writeJSON(project)
	}
	_, err := fmt.Fprintln(p.w, p.line(project))
	return err
}

// line renders "priority name description [dir] [TAG]".
func (p *printer) line(project types.Project) string {
	parts := []string{
		p.styles.priority.Render(strconv.Itoa(project.Priority)),
		p.styles.name.Render(project.Name),
	}
	if project.Description != "" {
		parts = append(parts, project.Description)
	}
	if project.HasDirectory() {
		parts = append(parts, p.styles.dir.Render(project.Directory))
	}
	if tag := p.tag(project.Special); tag != "" {
		parts = append(parts, tag)
	}
	return strings.Join(parts, "  ")
}

func (p *printer) tag(s types.Special) string {
	switch s {
	case types.SpecialHooked:
		return p.styles.hooked.Render(string(s))
	case types.SpecialMarked:
		return p.styles.marked.Render(string(s))
	}
	return ""
}

// message prints a plain status line. It is suppressed in JSON mode.
func (p *printer) message(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// warning prints a styled warning line. It is suppressed in JSON mode.
func (p *printer) warning(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintln(p.w, p.styles.warn.Render(fmt.Sprintf(format, args...)))
}
