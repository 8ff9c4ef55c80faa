// Package cli implements the hook command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/hook/internal/editor"
	"github.com/mesh-intelligence/hook/internal/logging"
	"github.com/mesh-intelligence/hook/internal/paths"
	"github.com/mesh-intelligence/hook/pkg/hook"
	"github.com/mesh-intelligence/hook/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by the commands of one tree.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings

	editor editor.Editor
	getwd  paths.Getwd
	logOut io.Writer
	logger *zap.Logger
}

// Option configures the command tree.
type Option func(*app)

// WithEditor replaces the external editor used by "edit".
func WithEditor(ed editor.Editor) Option {
	return func(a *app) { a.editor = ed }
}

// WithWorkingDir replaces os.Getwd for the mark and hook commands.
func WithWorkingDir(getwd paths.Getwd) Option {
	return func(a *app) { a.getwd = getwd }
}

// WithLogOutput sets where log lines are written. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *app) { a.logOut = w }
}

// NewRootCmd creates the top-level "hook" command with global flags and all
// subcommands registered.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		logOut: os.Stderr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "hook",
		Short: "Track projects and jump back to the one you are hooked on",
		Long: "hook keeps a prioritized list of projects. One project can be HOOKED\n" +
			"as the jump target and one MARKED as the fallback; the whole list is\n" +
			"edited as text in $EDITOR.",
		Version:       hook.Version,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/hook)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/hook)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&a.flags.verbose, "verbose", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newEditCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newClearCmd(a))
	root.AddCommand(newMarkCmd(a))
	root.AddCommand(newHookCmd(a))
	root.AddCommand(newHookedCmd(a))
	root.AddCommand(newUnhookCmd(a))
	root.AddCommand(newSpecialCmd(a))
	root.AddCommand(newDirsCmd(a))
	root.AddCommand(newGetCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the command tree with args and returns the process exit code.
// Errors are printed to stderr.
func Run(args []string, stdout, stderr io.Writer, opts ...Option) int {
	root := NewRootCmd(append([]Option{WithLogOutput(stderr)}, opts...)...)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup resolves the config directory, loads config.yaml and builds the
// logger. The version and help commands skip it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch cmd.Name() {
	case "version", "help":
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	// init writes its own config.yaml so that --data-dir is recorded.
	if cmd.Name() != "init" {
		if _, err := writeConfigIfMissing(configDir, defaultConfigFile()); err != nil {
			return err
		}
	}

	s, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.settings = s

	logger, err := a.buildLogger()
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("config loaded",
		zap.String("config_dir", configDir),
		zap.String("tag_policy", string(s.TagPolicy)),
	)
	return nil
}

// buildLogger applies --verbose over the configured log_level.
func (a *app) buildLogger() (*zap.Logger, error) {
	cfg := logging.NewDefaultConfig()
	switch {
	case a.flags.verbose:
		cfg.Level = zap.DebugLevel
	case a.settings.LogLevel != "":
		lvl, err := logging.ParseLevel(a.settings.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", cfgKeyLogLevel, err)
		}
		cfg.Level = lvl
	}
	return logging.New(cfg, a.logOut)
}

// usageError marks a command-line usage mistake.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// usageArgs wraps a cobra argument validator so its failures exit as user
// errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// userErrors are the sentinels that exit with exitUserError. Everything else
// is a system error.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrDuplicateKey,
	types.ErrTagBlocked,
	types.ErrEditorAborted,
	types.ErrMalformedLine,
	types.ErrInvalidName,
	types.ErrInvalidData,
	types.ErrInvalidSpecial,
	paths.ErrNoProjectName,
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
