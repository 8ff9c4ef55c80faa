package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize hook storage",
		Long:  "Write config.yaml if it is missing, then create the project database.",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	cfg := defaultConfigFile()
	cfg.DataDir = a.flags.dataDir
	if cfg.DataDir != "" {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = abs
	}

	wrote, err := writeConfigIfMissing(a.configDir, cfg)
	if err != nil {
		return err
	}
	if wrote {
		// Reload so the new file is the source of truth.
		s, err := loadConfig(a.configDir)
		if err != nil {
			return err
		}
		a.settings = s
	}

	p := a.printer(cmd)
	return a.withSession(func(s *session) error {
		if wrote {
			p.message("Wrote %s", filepath.Join(a.configDir, configFileExt))
		}
		p.message("hook initialized: %s", s.config.DataDir)
		return nil
	})
}
