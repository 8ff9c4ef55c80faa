// Shared helpers for hook CLI commands.
package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/hook/internal/paths"
	"github.com/mesh-intelligence/hook/internal/tags"
	"github.com/mesh-intelligence/hook/pkg/sqlite"
	"github.com/mesh-intelligence/hook/pkg/types"
)

// session is an attached store with the collaborators built on it.
// The caller must Close it.
type session struct {
	store  types.Store
	config types.Config
	table  types.ProjectTable
	tags   *tags.Manager
}

// storeConfig resolves the data directory and assembles the store Config.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		Backend:   a.settings.Backend,
		DataDir:   dataDir,
		TagPolicy: a.settings.TagPolicy,
	}, nil
}

// open attaches the configured store.
func (a *app) open() (*session, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}

	store := sqlite.NewBackend()
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	table, err := store.Projects()
	if err != nil {
		store.Detach()
		return nil, fmt.Errorf("open projects: %w", err)
	}
	a.logger.Debug("store attached", zap.String("data_dir", cfg.DataDir))

	m := tags.NewManager(table,
		tags.WithPolicy(cfg.GetTagPolicy()),
		tags.WithWorkingDir(a.getwd),
		tags.WithLogger(a.logger),
	)
	return &session{store: store, config: cfg, table: table, tags: m}, nil
}

// Close detaches the store.
func (s *session) Close() error {
	return s.store.Detach()
}

// withSession opens a session, runs fn and closes the session. A detach
// failure is reported only when fn succeeded.
func (a *app) withSession(fn func(*session) error) (err error) {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("detach store: %w", cerr)
		}
	}()
	return fn(s)
}
