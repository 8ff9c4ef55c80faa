// Project listing and lookup commands.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hook/internal/reconcile"
	"github.com/mesh-intelligence/hook/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects by priority",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				all, err := s.table.ListAll()
				if err != nil {
					return err
				}
				reconcile.SortByPriority(all)
				return a.printer(cmd).projects(all)
			})
		},
	}
}

func newDirsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dirs",
		Short: "List projects that have a directory",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				all, err := s.table.ListAll()
				if err != nil {
					return err
				}
				var withDir []types.Project
				for _, p := range all {
					if p.HasDirectory() {
						withDir = append(withDir, p)
					}
				}
				reconcile.SortByPriority(withDir)
				return a.printer(cmd).projects(withDir)
			})
		},
	}
}

func newSpecialCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "special",
		Short: "Show the hooked and marked projects",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				tagged, err := s.tags.QueryTagged()
				if err != nil {
					return err
				}
				return a.printer(cmd).projects(tagged)
			})
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show one project by name",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				p, err := s.table.FindByName(args[0])
				if errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("project %q: %w", args[0], err)
				}
				if err != nil {
					return err
				}
				return a.printer(cmd).project(p)
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every project",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				var removed int
				err := s.table.Atomically(func(t types.ProjectTable) error {
					all, err := t.ListAll()
					if err != nil {
						return err
					}
					removed = len(all)
					return t.ClearAll()
				})
				if err != nil {
					return err
				}
				p := a.printer(cmd)
				if p.json {
					return p.writeJSON(map[string]int{"removed": removed})
				}
				p.message("Removed %d project(s).", removed)
				return nil
			})
		},
	}
}
