package tags

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/hook/internal/paths"
	"github.com/mesh-intelligence/hook/internal/sqlite"
	"github.com/mesh-intelligence/hook/pkg/types"
)

// setupTable attaches a fresh SQLite backend and returns its project table.
func setupTable(t *testing.T) types.ProjectTable {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	table, err := b.Projects()
	require.NoError(t, err)
	return table
}

func workingDir(dir string) paths.Getwd {
	return func() (string, error) { return dir, nil }
}

func insert(t *testing.T, table types.ProjectTable, projects ...types.Project) {
	t.Helper()
	for _, p := range projects {
		require.NoError(t, table.Insert(p))
	}
}

// holders maps each tag to the names holding it.
func holders(t *testing.T, m *Manager) map[types.Special][]string {
	t.Helper()
	tagged, err := m.QueryTagged()
	require.NoError(t, err)
	got := map[types.Special][]string{}
	for _, p := range tagged {
		got[p.Special] = append(got[p.Special], p.Name)
	}
	return got
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(setupTable(t))
	assert.Equal(t, types.TagPolicyHookBlocksMark, m.Policy())

	m = NewManager(setupTable(t), WithPolicy(""))
	assert.Equal(t, types.TagPolicyHookBlocksMark, m.Policy(), "empty policy keeps the default")

	m = NewManager(setupTable(t), WithPolicy(types.TagPolicyIndependent), WithLogger(nil))
	assert.Equal(t, types.TagPolicyIndependent, m.Policy())
}

func TestSetTag_Exclusivity(t *testing.T) {
	for _, tag := range []types.Special{types.SpecialMarked, types.SpecialHooked} {
		t.Run(string(tag), func(t *testing.T) {
			table := setupTable(t)
			insert(t, table,
				types.Project{Priority: 1, Name: "a", Description: "d"},
				types.Project{Priority: 2, Name: "b", Description: "d"},
				types.Project{Priority: 3, Name: "c", Description: "d"},
			)
			m := NewManager(table, WithPolicy(types.TagPolicyIndependent))

			for _, name := range []string{"a", "b", "c", "a", "a"} {
				require.NoError(t, m.SetTag(name, tag))
				assert.Equal(t, []string{name}, holders(t, m)[tag],
					"after SetTag(%q) exactly one project holds %s", name, tag)
			}
		})
	}
}

func TestSetTag_Errors(t *testing.T) {
	table := setupTable(t)
	insert(t, table, types.Project{Priority: 1, Name: "a", Description: "d", Special: types.SpecialMarked})
	m := NewManager(table)

	assert.ErrorIs(t, m.SetTag("missing", types.SpecialHooked), types.ErrNotFound)
	assert.ErrorIs(t, m.SetTag("a", types.SpecialNone), types.ErrInvalidSpecial)
	assert.ErrorIs(t, m.SetTag("a", "PINNED"), types.ErrInvalidSpecial)

	assert.Equal(t, []string{"a"}, holders(t, m)[types.SpecialMarked],
		"a failed SetTag leaves the previous holder in place")
}

func TestSetTag_ReplacesOtherTagOnSameProject(t *testing.T) {
	table := setupTable(t)
	insert(t, table, types.Project{Priority: 1, Name: "a", Description: "d", Special: types.SpecialMarked})
	m := NewManager(table)

	require.NoError(t, m.SetTag("a", types.SpecialHooked))
	got, err := table.FindByName("a")
	require.NoError(t, err)
	assert.Equal(t, types.SpecialHooked, got.Special)
	assert.Empty(t, holders(t, m)[types.SpecialMarked])
}

// TestPolicy_HookBlocksMark pins the deliberate default: while a project is
// hooked, new MARKED assignments are refused and nothing changes.
func TestPolicy_HookBlocksMark(t *testing.T) {
	table := setupTable(t)
	insert(t, table,
		types.Project{Priority: 1, Name: "foo", Description: "d", Special: types.SpecialMarked},
		types.Project{Priority: 1, Name: "bar", Description: "d", Special: types.SpecialHooked},
		types.Project{Priority: 1, Name: "baz", Description: "d"},
	)
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewManager(table, WithLogger(zap.New(core)))

	err := m.SetTag("baz", types.SpecialMarked)
	assert.ErrorIs(t, err, types.ErrTagBlocked)
	assert.Contains(t, err.Error(), "bar")
	assert.Equal(t, 1, logs.FilterMessage("mark blocked by hooked project").Len())

	assert.Equal(t, map[types.Special][]string{
		types.SpecialMarked: {"foo"},
		types.SpecialHooked: {"bar"},
	}, holders(t, m))

	_, _, err = m.Unhook()
	require.NoError(t, err)
	require.NoError(t, m.SetTag("baz", types.SpecialMarked), "mark succeeds once nothing is hooked")
	assert.Equal(t, []string{"baz"}, holders(t, m)[types.SpecialMarked])
}

// TestPolicy_Independent pins the alternative: each tag follows only its own
// single-holder rule.
func TestPolicy_Independent(t *testing.T) {
	table := setupTable(t)
	insert(t, table,
		types.Project{Priority: 1, Name: "foo", Description: "d", Special: types.SpecialMarked},
		types.Project{Priority: 1, Name: "bar", Description: "d", Special: types.SpecialHooked},
		types.Project{Priority: 1, Name: "baz", Description: "d"},
	)
	m := NewManager(table, WithPolicy(types.TagPolicyIndependent))

	require.NoError(t, m.SetTag("baz", types.SpecialMarked))
	assert.Equal(t, map[types.Special][]string{
		types.SpecialMarked: {"baz"},
		types.SpecialHooked: {"bar"},
	}, holders(t, m))
}

func TestUnhook(t *testing.T) {
	table := setupTable(t)
	insert(t, table,
		types.Project{Priority: 1, Name: "m", Description: "d", Special: types.SpecialMarked},
		types.Project{Priority: 1, Name: "h", Description: "d", Special: types.SpecialHooked},
	)
	m := NewManager(table)

	former, ok, err := m.Unhook()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h", former.Name)
	assert.Equal(t, types.SpecialNone, former.Special)
	assert.Equal(t, map[types.Special][]string{types.SpecialMarked: {"m"}}, holders(t, m))

	_, ok, err = m.Unhook()
	require.NoError(t, err, "unhooking with nothing hooked is a no-op")
	assert.False(t, ok)
}

func TestJumpTarget(t *testing.T) {
	table := setupTable(t)
	m := NewManager(table)

	_, ok, err := m.JumpTarget()
	require.NoError(t, err)
	assert.False(t, ok, "no tags resolves to nothing")

	insert(t, table, types.Project{Priority: 1, Name: "m", Description: "d", Directory: "/src/m", Special: types.SpecialMarked})
	got, ok, err := m.JumpTarget()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "m", got.Name, "falls back to the marked project")

	insert(t, table, types.Project{Priority: 9, Name: "h", Description: "d", Directory: "/src/h", Special: types.SpecialHooked})
	got, ok, err = m.JumpTarget()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/src/h", got.Directory, "hooked wins over marked")
}

func TestJumpTarget_SkipsHoldersWithoutDirectory(t *testing.T) {
	table := setupTable(t)
	m := NewManager(table)

	insert(t, table, types.Project{Priority: 1, Name: "h", Description: "d", Special: types.SpecialHooked})
	_, ok, err := m.JumpTarget()
	require.NoError(t, err)
	assert.False(t, ok, "a hooked project without a directory is not a target")

	insert(t, table, types.Project{Priority: 2, Name: "m", Description: "d", Directory: "/src/m", Special: types.SpecialMarked})
	got, ok, err := m.JumpTarget()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/src/m", got.Directory)
}

func TestEnsureWorkingProject(t *testing.T) {
	root := t.TempDir()
	fooDir := filepath.Join(root, "foo")

	t.Run("creates from the directory name", func(t *testing.T) {
		table := setupTable(t)
		m := NewManager(table, WithWorkingDir(workingDir(fooDir)))

		got, err := m.EnsureWorkingProject("", MarkedDescription)
		require.NoError(t, err)
		want := types.Project{Priority: 1, Name: "foo", Description: "Marked Directory", Directory: fooDir}
		assert.Equal(t, want, got)

		stored, err := table.FindByName("foo")
		require.NoError(t, err)
		assert.Equal(t, want, stored)
	})

	t.Run("reuses the project claiming the directory", func(t *testing.T) {
		table := setupTable(t)
		insert(t, table, types.Project{Priority: 4, Name: "renamed", Description: "mine", Directory: fooDir})
		m := NewManager(table, WithWorkingDir(workingDir(fooDir)))

		got, err := m.EnsureWorkingProject("", MarkedDescription)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)

		all, err := table.ListAll()
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("explicit name claims the directory for an existing project", func(t *testing.T) {
		table := setupTable(t)
		insert(t, table, types.Project{Priority: 2, Name: "notes", Description: "no dir yet"})
		m := NewManager(table, WithWorkingDir(workingDir(fooDir)))

		got, err := m.EnsureWorkingProject("notes", HookedDescription)
		require.NoError(t, err)
		assert.Equal(t, types.Project{Priority: 2, Name: "notes", Description: "no dir yet", Directory: fooDir}, got)
	})

	t.Run("existing directory is kept", func(t *testing.T) {
		table := setupTable(t)
		insert(t, table, types.Project{Priority: 2, Name: "notes", Description: "d", Directory: "/elsewhere"})
		m := NewManager(table, WithWorkingDir(workingDir(fooDir)))

		got, err := m.EnsureWorkingProject("notes", HookedDescription)
		require.NoError(t, err)
		assert.Equal(t, "/elsewhere", got.Directory)
	})

	t.Run("directory claimed by another project is not stolen", func(t *testing.T) {
		table := setupTable(t)
		insert(t, table,
			types.Project{Priority: 2, Name: "notes", Description: "d"},
			types.Project{Priority: 2, Name: "owner", Description: "d", Directory: fooDir},
		)
		m := NewManager(table, WithWorkingDir(workingDir(fooDir)))

		got, err := m.EnsureWorkingProject("notes", HookedDescription)
		require.NoError(t, err)
		assert.False(t, got.HasDirectory())
	})

	t.Run("new name on a claimed directory is a duplicate", func(t *testing.T) {
		table := setupTable(t)
		insert(t, table, types.Project{Priority: 2, Name: "owner", Description: "d", Directory: fooDir})
		m := NewManager(table, WithWorkingDir(workingDir(fooDir)))

		_, err := m.EnsureWorkingProject("fresh", MarkedDescription)
		assert.ErrorIs(t, err, types.ErrDuplicateKey)
	})

	t.Run("root directory has no name", func(t *testing.T) {
		m := NewManager(setupTable(t), WithWorkingDir(workingDir(string(filepath.Separator))))
		_, err := m.EnsureWorkingProject("", MarkedDescription)
		assert.ErrorIs(t, err, paths.ErrNoProjectName)
	})
}

func TestMarkAndHook(t *testing.T) {
	root := t.TempDir()
	table := setupTable(t)
	cwd := filepath.Join(root, "foo")
	m := NewManager(table, WithWorkingDir(func() (string, error) { return cwd, nil }))

	marked, err := m.Mark("")
	require.NoError(t, err)
	assert.Equal(t, types.SpecialMarked, marked.Special)
	assert.Equal(t, MarkedDescription, marked.Description)

	cwd = filepath.Join(root, "bar")
	hooked, err := m.Hook("")
	require.NoError(t, err)
	assert.Equal(t, types.Project{Priority: 1, Name: "bar", Description: HookedDescription, Directory: cwd, Special: types.SpecialHooked}, hooked)

	cwd = filepath.Join(root, "baz")
	blocked, err := m.Mark("")
	assert.ErrorIs(t, err, types.ErrTagBlocked)
	assert.Equal(t, "baz", blocked.Name, "the project is created even though the tag is refused")
	assert.Equal(t, types.SpecialNone, blocked.Special)

	_, err = table.FindByName("baz")
	require.NoError(t, err)
	assert.Equal(t, map[types.Special][]string{
		types.SpecialMarked: {"foo"},
		types.SpecialHooked: {"bar"},
	}, holders(t, m))
}

func TestMarkAndHook_SurroundingSpace(t *testing.T) {
	t.Run("explicit name is trimmed", func(t *testing.T) {
		table := setupTable(t)
		m := NewManager(table, WithWorkingDir(workingDir("/work/foo")))

		hooked, err := m.Hook("  foo\t")
		require.NoError(t, err)
		assert.Equal(t, "foo", hooked.Name)

		stored, err := table.FindByTag(types.SpecialHooked)
		require.NoError(t, err)
		assert.Equal(t, "foo", stored.Name)
	})

	t.Run("directory ending in a space is refused", func(t *testing.T) {
		table := setupTable(t)
		m := NewManager(table, WithWorkingDir(workingDir("/work/foo ")))

		_, err := m.Mark("")
		assert.ErrorIs(t, err, types.ErrInvalidName)
		_, err = m.Mark("foo")
		assert.ErrorIs(t, err, types.ErrInvalidData)

		all, err := table.ListAll()
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

// TestScenario_MarkHookMark walks the documented end-to-end scenario under
// both policies.
func TestScenario_MarkHookMark(t *testing.T) {
	for _, policy := range []types.TagPolicy{types.TagPolicyHookBlocksMark, types.TagPolicyIndependent} {
		t.Run(string(policy), func(t *testing.T) {
			table := setupTable(t)
			fooDir := filepath.Join(t.TempDir(), "foo")
			m := NewManager(table, WithPolicy(policy), WithWorkingDir(workingDir(fooDir)))

			created, err := m.EnsureWorkingProject("", MarkedDescription)
			require.NoError(t, err)
			assert.Equal(t, types.Project{Priority: 1, Name: "foo", Description: "Marked Directory", Directory: fooDir}, created)
			assert.Empty(t, holders(t, m), "creation alone sets no tag")

			require.NoError(t, m.SetTag("foo", types.SpecialMarked))
			tagged, err := m.QueryTagged()
			require.NoError(t, err)
			require.Len(t, tagged, 1)
			assert.Equal(t, "foo", tagged[0].Name)
			assert.Equal(t, types.SpecialMarked, tagged[0].Special)

			insert(t, table,
				types.Project{Priority: 2, Name: "bar", Description: "pre-existing"},
				types.Project{Priority: 3, Name: "baz", Description: "pre-existing"},
			)
			require.NoError(t, m.SetTag("bar", types.SpecialHooked))
			assert.Equal(t, map[types.Special][]string{
				types.SpecialMarked: {"foo"},
				types.SpecialHooked: {"bar"},
			}, holders(t, m))

			err = m.SetTag("baz", types.SpecialMarked)
			switch policy {
			case types.TagPolicyHookBlocksMark:
				assert.ErrorIs(t, err, types.ErrTagBlocked)
				assert.Equal(t, []string{"foo"}, holders(t, m)[types.SpecialMarked])
			case types.TagPolicyIndependent:
				require.NoError(t, err)
				assert.Equal(t, []string{"baz"}, holders(t, m)[types.SpecialMarked])
				foo, err := table.FindByName("foo")
				require.NoError(t, err)
				assert.Equal(t, types.SpecialNone, foo.Special)
			}
		})
	}
}
