package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hook/internal/editor"
	"github.com/mesh-intelligence/hook/internal/reconcile"
)

// editReport is the JSON form of a reconciliation report.
type editReport struct {
	RunID     string              `json:"run_id"`
	Unchanged bool                `json:"unchanged"`
	Written   int                 `json:"written"`
	Dropped   []string            `json:"dropped"`
	LostTags  []reconcile.TagLoss `json:"lost_tags"`
}

func newEditCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit all projects in $EDITOR",
		Long: `Edit opens every project in your editor, one per line:

  <priority>, <name>, <description>[, <directory>]

Saving replaces the whole list. Lines that do not parse are skipped and
reported. HOOKED and MARKED survive when the project keeps its name and
directory. Leaving the file unchanged writes nothing; emptying it cancels.

The editor is taken from config.yaml, then $VISUAL, then $EDITOR.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				engine := reconcile.NewEngine(s.table, s.tags,
					reconcile.WithLogger(a.logger),
					reconcile.WithStrictParse(strict),
				)
				report, err := engine.Edit(cmd.Context(), a.editorFor(cmd))
				if report != nil {
					printReport(a.printer(cmd), report, err == nil)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "write nothing if any line fails to parse")
	return cmd
}

// editorFor returns the injected editor or the configured external command.
func (a *app) editorFor(cmd *cobra.Command) editor.Editor {
	if a.editor != nil {
		return a.editor
	}
	return &editor.Command{
		Program: editor.Resolve(a.settings.Editor),
		Stdin:   cmd.InOrStdin(),
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	}
}

// printReport lists what was dropped and, when committed, the result.
func printReport(p *printer, r *reconcile.Report, committed bool) {
	if p.json {
		out := editReport{
			RunID:     r.RunID,
			Unchanged: r.Unchanged,
			Written:   r.Written,
			Dropped:   []string{},
			LostTags:  r.LostTags,
		}
		for _, issue := range r.Issues {
			out.Dropped = append(out.Dropped, issue.Error())
		}
		for _, rej := range r.Rejected {
			out.Dropped = append(out.Dropped, rej.Err.Error())
		}
		if out.LostTags == nil {
			out.LostTags = []reconcile.TagLoss{}
		}
		p.writeJSON(out)
		return
	}

	if r.Unchanged {
		p.message("No changes.")
		return
	}
	for _, issue := range r.Issues {
		p.warning("skipped %s (%q)", issue.Error(), issue.Text)
	}
	for _, rej := range r.Rejected {
		p.warning("rejected %s: %v", rej.Project.Name, rej.Err)
	}
	for _, lost := range r.LostTags {
		p.warning("%s no longer %s", lost.Name, lost.Tag)
	}
	if !committed {
		return
	}
	p.message("Saved %d project(s).", r.Written)
}
