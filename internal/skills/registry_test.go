package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, id, body string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), []byte(body), 0o644))
}

func TestRegistryDiscoversSortedByID(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "zeta", "---\nname: zeta\ndescription: last\n---\nbody\n")
	writeSkill(t, root, "alpha", "---\nname: alpha\ndescription: first\n---\nbody\n")

	reg := NewRegistry(root, nil)
	found, err := reg.List()
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "alpha", found[0].ID)
	require.Equal(t, "zeta", found[1].ID)
}

func TestRegistrySkipsDirectoriesWithoutSkillFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-skill"), 0o755))
	writeSkill(t, root, "real", "---\nname: real\ndescription: d\n---\nbody\n")

	reg := NewRegistry(root, nil)
	found, err := reg.List()
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "real", found[0].ID)
}

func TestRegistrySkipsInvalidSkillsWithoutFailing(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "broken", "not a valid front-matter file")
	writeSkill(t, root, "ok", "---\nname: ok\ndescription: d\n---\nbody\n")

	reg := NewRegistry(root, nil)
	found, err := reg.List()
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "ok", found[0].ID)
}

func TestRegistryMissingRootIsEmptyNotError(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	found, err := reg.List()
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestRegistryReloadPicksUpChanges(t *testing.T) {
	root := t.TempDir()
	reg := NewRegistry(root, nil)

	found, err := reg.List()
	require.NoError(t, err)
	require.Empty(t, found)

	writeSkill(t, root, "added-later", "---\nname: added-later\ndescription: d\n---\nbody\n")

	// List without Reload still sees the stale snapshot.
	found, err = reg.List()
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = reg.Reload()
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestRegistryGet(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "present", "---\nname: present\ndescription: d\n---\nbody\n")
	reg := NewRegistry(root, nil)

	s, ok, err := reg.Get("present")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "present", s.Name)

	_, ok, err = reg.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)
}
