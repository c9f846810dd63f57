package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/store"
)

func TestRoster(t *testing.T) {
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	g := &model.Group{Name: "North", Color: "#ff0000"}
	require.NoError(t, s.CreateGroup(ctx, g))
	require.NoError(t, s.CreatePerson(ctx, &model.Person{
		Name: "Ada", Location: geometry.Point{Lat: 30.25, Lng: -97.75}, GroupID: g.ID,
	}))
	require.NoError(t, s.CreateMeeting(ctx, &model.MeetingPoint{
		Name: "Hall", Location: geometry.Point{Lat: 30.3, Lng: -97.8}, GroupID: g.ID,
	}))
	require.NoError(t, s.CreateFamily(ctx, &model.Family{
		Name: "Garcia", Location: geometry.Point{Lat: 30.1, Lng: -97.6},
	}))

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, Roster(ctx, s, path))

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 4)

	people := wb.Sheet["People"]
	require.NotNil(t, people)
	require.GreaterOrEqual(t, len(people.Rows), 2)
	// Header then Ada's row, group denormalized to its name.
	assert.Equal(t, "Ada", people.Rows[1].Cells[1].String())
	assert.Equal(t, "North", people.Rows[1].Cells[4].String())
}

func TestRoster_EmptyStore(t *testing.T) {
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, Roster(ctx, s, path))

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, wb.Sheets, 4)
}
