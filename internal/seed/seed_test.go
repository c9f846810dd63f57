package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flockmap/flock-cli/internal/store"
)

const fixture = `
groups:
  - name: North
    color: "#ff0000"
  - name: South
families:
  - name: Garcia
    lat: 30.1
    lng: -97.6
persons:
  - name: Ada
    lat: 30.2
    lng: -97.7
    group: North
    family: Garcia
  - name: Ben
    lat: 30.3
    lng: -97.8
    group: South
meetings:
  - name: Hall
    lat: 30.4
    lng: -97.9
    group: North
`

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	counts, err := Load(ctx, st, writeFixture(t, fixture))
	require.NoError(t, err)
	assert.Equal(t, Counts{Groups: 2, Families: 1, Persons: 2, Meetings: 1}, counts)

	groups, err := st.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "#ff0000", groups[0].Color)

	// Name references resolved to ids: North has Ada plus the Hall.
	points, err := st.GroupPoints(ctx, groups[0].ID)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestLoad_UnknownGroupReference(t *testing.T) {
	st := newTestStore(t)

	bad := `
persons:
  - name: Lost
    lat: 1
    lng: 2
    group: nowhere
`
	_, err := Load(context.Background(), st, writeFixture(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown group")
}

func TestLoad_MissingFile(t *testing.T) {
	st := newTestStore(t)
	_, err := Load(context.Background(), st, "/nonexistent.yaml")
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	st := newTestStore(t)
	_, err := Load(context.Background(), st, writeFixture(t, "groups: {not: [valid"))
	require.Error(t, err)
}
