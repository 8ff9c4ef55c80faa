// Package tags maintains the MARKED and HOOKED tags on top of the project
// table and implements the mark, hook and unhook actions.
//
// Each tag has at most one holder. SetTag moves a tag by clearing the current
// holder and then setting the new one, inside a single transaction.
package tags

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/hook/internal/logging"
	"github.com/mesh-intelligence/hook/internal/paths"
	"github.com/mesh-intelligence/hook/pkg/types"
)

// Default descriptions for projects created by the mark and hook actions.
const (
	MarkedDescription = "Marked Directory"
	HookedDescription = "Hooked Directory"

	// DefaultPriority is the priority of projects created from the working
	// directory.
	DefaultPriority = 1
)

// Manager enforces tag exclusivity over a ProjectTable.
type Manager struct {
	table  types.ProjectTable
	policy types.TagPolicy
	getwd  paths.Getwd
	logger *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy selects the MARKED/HOOKED interaction policy.
func WithPolicy(p types.TagPolicy) Option {
	return func(m *Manager) {
		if p != "" {
			m.policy = p
		}
	}
}

// WithWorkingDir replaces os.Getwd as the source of the current directory.
func WithWorkingDir(getwd paths.Getwd) Option {
	return func(m *Manager) { m.getwd = getwd }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// NewManager returns a Manager over table. The default policy is
// TagPolicyHookBlocksMark.
func NewManager(table types.ProjectTable, opts ...Option) *Manager {
	m := &Manager{
		table:  table,
		policy: types.TagPolicyHookBlocksMark,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the active tag policy.
func (m *Manager) Policy() types.TagPolicy {
	return m.policy
}

// SetTag gives tag to the project called name, clearing any previous holder.
// Returns ErrNotFound if the project does not exist and ErrTagBlocked when
// the policy refuses a MARKED assignment because a project is hooked.
// A project holds one tag at a time, so tagging the holder of the other tag
// replaces it.
func (m *Manager) SetTag(name string, tag types.Special) error {
	if tag == types.SpecialNone || !tag.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidSpecial, string(tag))
	}

	return m.table.Atomically(func(t types.ProjectTable) error {
		target, err := t.FindByName(name)
		if err != nil {
			return fmt.Errorf("tagging %q: %w", name, err)
		}

		if tag == types.SpecialMarked && m.policy == types.TagPolicyHookBlocksMark {
			hooked, err := findHolder(t, types.SpecialHooked)
			if err != nil {
				return err
			}
			if hooked != nil {
				m.logger.Info("mark blocked by hooked project",
					zap.String("project", name), zap.String("hooked", hooked.Name))
				return fmt.Errorf("%w: %q is hooked", types.ErrTagBlocked, hooked.Name)
			}
		}

		if target.Special == tag {
			return nil
		}

		holder, err := findHolder(t, tag)
		if err != nil {
			return err
		}
		if holder != nil {
			if err := t.SetSpecial(holder.Name, types.SpecialNone); err != nil {
				return fmt.Errorf("clearing %s from %q: %w", tag, holder.Name, err)
			}
			m.logger.Debug("tag cleared", zap.String("tag", string(tag)), zap.String("project", holder.Name))
		}

		if err := t.SetSpecial(name, tag); err != nil {
			return fmt.Errorf("setting %s on %q: %w", tag, name, err)
		}
		m.logger.Debug("tag set", zap.String("tag", string(tag)), zap.String("project", name))
		return nil
	})
}

// Unhook clears HOOKED from whichever project holds it. It returns the former
// holder, or ok=false when nothing was hooked.
func (m *Manager) Unhook() (former types.Project, ok bool, err error) {
	err = m.table.Atomically(func(t types.ProjectTable) error {
		holder, err := findHolder(t, types.SpecialHooked)
		if err != nil || holder == nil {
			return err
		}
		if err := t.SetSpecial(holder.Name, types.SpecialNone); err != nil {
			return fmt.Errorf("unhooking %q: %w", holder.Name, err)
		}
		former, ok = *holder, true
		former.Special = types.SpecialNone
		return nil
	})
	if err != nil {
		return types.Project{}, false, err
	}
	if ok {
		m.logger.Debug("tag cleared", zap.String("tag", string(types.SpecialHooked)), zap.String("project", former.Name))
	}
	return former, ok, nil
}

// QueryTagged returns every project holding a tag, ordered by priority.
func (m *Manager) QueryTagged() ([]types.Project, error) {
	return m.table.QueryTagged()
}

// JumpTarget resolves the directory to jump to: the HOOKED project, else the
// MARKED project. Holders without a directory are passed over. ok is false
// when no tagged project has a directory.
func (m *Manager) JumpTarget() (target types.Project, ok bool, err error) {
	for _, tag := range []types.Special{types.SpecialHooked, types.SpecialMarked} {
		holder, err := findHolder(m.table, tag)
		if err != nil {
			return types.Project{}, false, err
		}
		if holder != nil && holder.HasDirectory() {
			return *holder, true, nil
		}
	}
	return types.Project{}, false, nil
}

// EnsureWorkingProject returns the project for the working directory,
// creating it when needed. With an empty name, a project that already claims
// the directory is reused; otherwise the name is the directory's final path
// segment. New projects get DefaultPriority, description and the directory.
// An existing project without a directory claims it when no other project
// does. Surrounding white space in name is dropped.
func (m *Manager) EnsureWorkingProject(name, description string) (types.Project, error) {
	name = strings.TrimSpace(name)
	derived, dir, err := paths.WorkingProject(m.getwd)
	if err != nil {
		return types.Project{}, fmt.Errorf("resolving working directory: %w", err)
	}

	var project types.Project
	err = m.table.Atomically(func(t types.ProjectTable) error {
		if name == "" {
			claimed, err := t.FindByDirectory(dir)
			switch {
			case err == nil:
				project = claimed
				return nil
			case !errors.Is(err, types.ErrNotFound):
				return err
			}
			name = derived
		}

		existing, err := t.FindByName(name)
		if errors.Is(err, types.ErrNotFound) {
			project = types.Project{
				Priority:    DefaultPriority,
				Name:        name,
				Description: description,
				Directory:   dir,
			}
			if err := t.Insert(project); err != nil {
				return err
			}
			m.logger.Debug("project created", zap.String("project", name), zap.String("dir", dir))
			return nil
		}
		if err != nil {
			return err
		}

		project = existing
		if existing.HasDirectory() {
			return nil
		}
		if _, err := t.FindByDirectory(dir); err == nil {
			return nil
		} else if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		if err := t.UpdateDirectory(name, dir); err != nil {
			return err
		}
		project.Directory = dir
		return nil
	})
	if err != nil {
		return types.Project{}, err
	}
	return project, nil
}

// Mark ensures the working project exists and tags it MARKED. The project is
// returned even when the policy blocks the tag, alongside ErrTagBlocked.
func (m *Manager) Mark(name string) (types.Project, error) {
	return m.tagWorking(name, MarkedDescription, types.SpecialMarked)
}

// Hook ensures the working project exists and tags it HOOKED.
func (m *Manager) Hook(name string) (types.Project, error) {
	return m.tagWorking(name, HookedDescription, types.SpecialHooked)
}

func (m *Manager) tagWorking(name, description string, tag types.Special) (types.Project, error) {
	project, err := m.EnsureWorkingProject(name, description)
	if err != nil {
		return types.Project{}, err
	}
	if err := m.SetTag(project.Name, tag); err != nil {
		return project, err
	}
	project.Special = tag
	return project, nil
}

// findHolder returns the holder of tag or nil.
func findHolder(t types.ProjectTable, tag types.Special) (*types.Project, error) {
	p, err := t.FindByTag(tag)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s holder: %w", tag, err)
	}
	return &p, nil
}
