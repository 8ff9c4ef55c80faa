package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/hook/internal/editor"
	"github.com/mesh-intelligence/hook/internal/logging"
	"github.com/mesh-intelligence/hook/pkg/types"
)

// TagSource supplies the currently tagged projects. *tags.Manager and any
// types.ProjectTable satisfy it.
type TagSource interface {
	QueryTagged() ([]types.Project, error)
}

// Snapshot is the state captured before an edit: the rendered buffer and the
// name-to-tag mapping used to restore tags afterwards.
type Snapshot struct {
	Text string
	Tags map[string]types.Special
}

// Rejection is a parsed project the store refused during commit.
type Rejection struct {
	Project types.Project
	Err     error
}

// Report summarizes one reconciliation run.
type Report struct {
	RunID     string
	Unchanged bool         // The buffer came back unedited; nothing was written.
	Written   int          // Rows inserted by the commit.
	Issues    []ParseIssue // Lines dropped while parsing.
	Rejected  []Rejection  // Rows refused by the store.
	LostTags  []TagLoss    // Tags that did not survive the edit.
}

// Dropped is the number of edited lines that did not become stored rows.
func (r *Report) Dropped() int {
	return len(r.Issues) + len(r.Rejected)
}

// Engine runs the serialize, edit, parse and commit cycle.
//
// A commit clears and refills the table inside one transaction, so a storage
// failure leaves the previous set intact. Engines must not run concurrently
// with each other or with tag changes on the same store.
type Engine struct {
	table    types.ProjectTable
	tags     TagSource
	logger   *zap.Logger
	strict   bool
	newRunID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// WithStrictParse makes any dropped line fail the run before the store is
// touched, instead of committing the well-formed subset.
func WithStrictParse(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// NewEngine returns an Engine over table. Tags are read from tags; a nil
// TagSource reads them from the table itself.
func NewEngine(table types.ProjectTable, tags TagSource, opts ...Option) *Engine {
	e := &Engine{
		table:    table,
		tags:     tags,
		logger:   zap.NewNop(),
		newRunID: newRunID,
	}
	if e.tags == nil {
		e.tags = table
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot captures the tag mapping and renders the current project set.
func (e *Engine) Snapshot() (Snapshot, error) {
	tagged, err := e.tags.QueryTagged()
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading tags: %w", err)
	}
	tags := make(map[string]types.Special, len(tagged))
	for _, p := range tagged {
		tags[p.Name] = p.Special
	}

	projects, err := e.table.ListAll()
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading projects: %w", err)
	}
	return Snapshot{Text: Render(projects), Tags: tags}, nil
}

// Edit snapshots the store, hands the buffer to ed and applies the result.
// Editor failures, and an edited buffer with no content at all, return an
// error wrapping types.ErrEditorAborted with the store untouched. A buffer
// returned unchanged is not committed.
func (e *Engine) Edit(ctx context.Context, ed editor.Editor) (*Report, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	edited, err := ed.Edit(ctx, snap.Text)
	if err != nil {
		if errors.Is(err, types.ErrEditorAborted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", types.ErrEditorAborted, err)
	}
	if strings.TrimSpace(edited) == "" {
		return nil, fmt.Errorf("%w: empty buffer", types.ErrEditorAborted)
	}

	if edited == snap.Text {
		report := &Report{RunID: e.newRunID(), Unchanged: true}
		e.logger.Info("reconcile skipped, buffer unchanged", zap.String("run_id", report.RunID))
		return report, nil
	}
	return e.Apply(snap, edited)
}

// Apply parses edited, restores tags from snap and replaces the stored set.
// Malformed lines are dropped and reported; rows the store rejects as
// duplicate or invalid are skipped and reported while the rest are written.
// Any other storage error rolls the commit back and is returned.
func (e *Engine) Apply(snap Snapshot, edited string) (*Report, error) {
	report := &Report{RunID: e.newRunID()}
	log := e.logger.With(zap.String("run_id", report.RunID))

	parsed := Parse(edited)
	report.Issues = parsed.Issues
	for _, issue := range parsed.Issues {
		log.Warn("dropping malformed line",
			zap.Int("line", issue.Line), zap.String("text", issue.Text), zap.Error(issue.Err))
	}
	if e.strict && len(parsed.Issues) > 0 {
		return report, fmt.Errorf("%w: %d line(s) rejected, nothing written", types.ErrMalformedLine, len(parsed.Issues))
	}

	projects := Reattach(parsed.Projects, snap.Tags)
	SortByPriority(projects)

	var (
		written  int
		rejected []Rejection
		kept     map[string]types.Special
	)
	err := e.table.Atomically(func(t types.ProjectTable) error {
		written, rejected, kept = 0, nil, make(map[string]types.Special)

		if err := t.ClearAll(); err != nil {
			return err
		}
		for _, p := range projects {
			if err := t.Insert(p); err != nil {
				if !isRowError(err) {
					return err
				}
				rejected = append(rejected, Rejection{Project: p, Err: err})
				continue
			}
			written++
			if p.Special != types.SpecialNone {
				kept[p.Name] = p.Special
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("committing edited projects: %w", err)
	}

	report.Written = written
	report.Rejected = rejected
	for _, r := range rejected {
		log.Warn("rejected project", zap.String("project", r.Project.Name), zap.Error(r.Err))
	}
	report.LostTags = lostTags(snap.Tags, kept)

	log.Info("reconciled projects",
		zap.Int("written", report.Written),
		zap.Int("malformed", len(report.Issues)),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("tags_lost", len(report.LostTags)),
	)
	return report, nil
}

// isRowError reports whether err concerns only the row being inserted.
func isRowError(err error) bool {
	return errors.Is(err, types.ErrDuplicateKey) ||
		errors.Is(err, types.ErrInvalidData) ||
		errors.Is(err, types.ErrInvalidName) ||
		errors.Is(err, types.ErrInvalidSpecial)
}

// lostTags lists snapshot tags that are not held by the same name after the
// commit, ordered by name.
func lostTags(before, after map[string]types.Special) []TagLoss {
	var lost []TagLoss
	for name, tag := range before {
		if after[name] != tag {
			lost = append(lost, TagLoss{Name: name, Tag: tag})
		}
	}
	sort.Slice(lost, func(i, j int) bool { return lost[i].Name < lost[j].Name })
	return lost
}

// newRunID generates a UUID v7 identifying one reconciliation in the logs.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
