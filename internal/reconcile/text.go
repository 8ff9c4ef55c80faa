// Package reconcile converts the project set to an editable text buffer and
// applies an edited buffer back to the store.
//
// The buffer holds one project per line:
//
//	<priority>, <name>, <description>[, <directory>]
//
// preceded by a header comment. Tags are not part of the text; they are
// carried across an edit by project name.
package reconcile

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/hook/pkg/types"
)

// Header is always the first line of a rendered buffer.
const Header = "# priority, name, description[, directory]"

// fieldSep separates fields in a rendered line.
const fieldSep = ", "

// ErrHeaderMissing marks a buffer whose first line is not a comment. The
// first line is discarded regardless, so this is reported as a dropped line.
var ErrHeaderMissing = errors.New("first line is not the header comment")

// ParseIssue describes a line that was dropped while parsing.
type ParseIssue struct {
	Line int    // 1-based line number in the edited buffer.
	Text string // The line as written.
	Err  error  // Wraps types.ErrMalformedLine.
}

func (i ParseIssue) Error() string {
	return fmt.Sprintf("line %d: %v", i.Line, i.Err)
}

// ParseResult is the outcome of parsing a buffer: the projects from every
// well-formed line and an issue for every dropped one.
type ParseResult struct {
	Projects []types.Project
	Issues   []ParseIssue
}

// SortByPriority orders projects by ascending priority. Equal priorities keep
// their relative order.
func SortByPriority(projects []types.Project) {
	slices.SortStableFunc(projects, func(a, b types.Project) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
}

// Render produces the text buffer for projects, sorted by priority.
// The input slice is not modified.
func Render(projects []types.Project) string {
	sorted := slices.Clone(projects)
	SortByPriority(sorted)

	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, p := range sorted {
		b.WriteString(RenderLine(p))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderLine formats a single project. The directory is omitted when absent
// and the tag is never written.
func RenderLine(p types.Project) string {
	fields := []string{strconv.Itoa(p.Priority), p.Name, p.Description}
	if p.HasDirectory() {
		fields = append(fields, p.Directory)
	}
	return strings.Join(fields, fieldSep)
}

// Parse reads an edited buffer. The first line is the header and is always
// discarded. Blank lines and further '#' comments are skipped. Any other line
// that does not parse is dropped and reported in Issues; it never aborts the
// parse.
func Parse(text string) ParseResult {
	var res ParseResult
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if i == 0 {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				res.Issues = append(res.Issues, ParseIssue{
					Line: 1,
					Text: line,
					Err:  fmt.Errorf("%w: %w", types.ErrMalformedLine, ErrHeaderMissing),
				})
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		p, err := ParseLine(line)
		if err != nil {
			res.Issues = append(res.Issues, ParseIssue{Line: i + 1, Text: line, Err: err})
			continue
		}
		res.Projects = append(res.Projects, p)
	}
	return res
}

// ParseLine parses one project line. Three fields give a project without a
// directory, four fields one with a directory; an empty fourth field counts
// as no directory. Errors wrap types.ErrMalformedLine.
func ParseLine(line string) (types.Project, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) != 3 && len(fields) != 4 {
		return types.Project{}, fmt.Errorf("%w: expected 3 or 4 fields, got %d", types.ErrMalformedLine, len(fields))
	}

	priority, err := strconv.Atoi(fields[0])
	if err != nil {
		return types.Project{}, fmt.Errorf("%w: priority %q is not an integer", types.ErrMalformedLine, fields[0])
	}

	p := types.Project{
		Priority:    priority,
		Name:        fields[1],
		Description: fields[2],
	}
	if len(fields) == 4 {
		p.Directory = fields[3]
	}
	if err := p.Validate(); err != nil {
		return types.Project{}, fmt.Errorf("%w: %w", types.ErrMalformedLine, err)
	}
	return p, nil
}

// TagLoss records a tag that did not survive an edit, either because its
// project was renamed, removed, lost its directory, or was rejected.
type TagLoss struct {
	Name string        `json:"name"`
	Tag  types.Special `json:"tag"`
}

// Reattach copies tags from the name-keyed snapshot onto parsed projects.
// Only projects with a directory get their tag back; all others carry none.
// The input slice is not modified.
func Reattach(projects []types.Project, tags map[string]types.Special) []types.Project {
	out := make([]types.Project, len(projects))
	for i, p := range projects {
		p.Special = types.SpecialNone
		if tag, ok := tags[p.Name]; ok && p.HasDirectory() {
			p.Special = tag
		}
		out[i] = p
	}
	return out
}
