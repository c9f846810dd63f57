package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/store"
)

// writeTestShapefile creates a point shapefile with a NAME attribute.
func writeTestShapefile(t *testing.T, points []shp.Point, names []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meetings.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 64)}))

	for i := range points {
		w.Write(&points[i])
		w.WriteAttribute(i, 0, names[i])
	}
	w.Close()
	return path
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMeetingPoints_Import(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	g := &model.Group{Name: "Imported"}
	require.NoError(t, st.CreateGroup(ctx, g))

	path := writeTestShapefile(t,
		[]shp.Point{{X: -97.74, Y: 30.26}, {X: -96.79, Y: 32.77}},
		[]string{"Community Hall", "River Park"},
	)

	created, err := MeetingPoints(ctx, st, path, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	meetings, err := st.ListMeetings(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, g.ID, meetings[0].GroupID)

	// The imported locations feed straight into the group's point set.
	points, err := st.GroupPoints(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestMeetingPoints_SkipsOutOfRange(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	path := writeTestShapefile(t,
		[]shp.Point{{X: -97.74, Y: 30.26}, {X: 500, Y: 95}},
		[]string{"Good", "Bad"},
	)

	created, err := MeetingPoints(ctx, st, path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestMeetingPoints_MissingFile(t *testing.T) {
	st := newTestStore(t)
	_, err := MeetingPoints(context.Background(), st, "/nonexistent/file.shp", "")
	require.Error(t, err)
}
