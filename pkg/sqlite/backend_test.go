package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hook/pkg/types"
)

func TestNewBackend_AttachListDetach(t *testing.T) {
	store := NewBackend()
	require.NoError(t, store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	defer store.Detach()

	table, err := store.Projects()
	require.NoError(t, err)

	require.NoError(t, table.Insert(types.Project{Priority: 1, Name: "hook", Description: "tracker"}))
	all, err := table.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
