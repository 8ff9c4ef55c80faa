// Tag commands: mark, hook, hooked and unhook.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hook/pkg/types"
)

func newMarkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mark [name]",
		Short: "Track the current directory and mark it",
		Long: `Mark adds the current directory to the tracker and tags it MARKED.
Without a name, the project already claiming the directory is reused, or a
new one is named after the directory. The marked project is the jump target
while nothing is hooked.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTag(cmd, args, types.SpecialMarked)
		},
	}
}

func newHookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hook [name]",
		Short: "Track the current directory and hook it",
		Long: `Hook adds the current directory to the tracker and tags it HOOKED.
The hooked project is the jump target regardless of later marks.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTag(cmd, args, types.SpecialHooked)
		},
	}
}

func (a *app) runTag(cmd *cobra.Command, args []string, tag types.Special) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	}

	return a.withSession(func(s *session) error {
		var (
			project types.Project
			err     error
		)
		if tag == types.SpecialHooked {
			project, err = s.tags.Hook(name)
		} else {
			project, err = s.tags.Mark(name)
		}

		p := a.printer(cmd)
		if errors.Is(err, types.ErrTagBlocked) {
			p.message("Tracking %s at %s", project.Name, project.Directory)
			return fmt.Errorf("cannot mark %s: %w", project.Name, err)
		}
		if err != nil {
			return err
		}
		if p.json {
			return p.project(project)
		}
		p.message("%s %s", tag, p.line(project))
		return nil
	})
}

func newHookedCmd(a *app) *cobra.Command {
	var dirOnly bool
	cmd := &cobra.Command{
		Use:   "hooked",
		Short: "Print the jump target",
		Long: `Hooked prints the hooked project, or the marked project when nothing
is hooked. Tagged projects without a directory are skipped, and nothing is
printed when no tagged project has one.

  cd "$(hook hooked --dir)"`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				target, ok, err := s.tags.JumpTarget()
				if err != nil {
					return err
				}
				p := a.printer(cmd)
				switch {
				case !ok && p.json:
					return p.writeJSON(nil)
				case !ok:
					return nil
				case dirOnly && !p.json:
					_, err := fmt.Fprintln(p.w, target.Directory)
					return err
				}
				return p.project(target)
			})
		},
	}
	cmd.Flags().BoolVar(&dirOnly, "dir", false, "print only the directory")
	return cmd
}

func newUnhookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unhook",
		Short: "Remove the HOOKED tag",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				former, ok, err := s.tags.Unhook()
				if err != nil {
					return err
				}
				p := a.printer(cmd)
				if p.json {
					if !ok {
						return p.writeJSON(nil)
					}
					return p.project(former)
				}
				if !ok {
					p.message("Nothing is hooked.")
					return nil
				}
				p.message("Unhooked %s", former.Name)
				return nil
			})
		},
	}
}
