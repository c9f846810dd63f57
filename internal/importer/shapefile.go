// Package importer loads meeting points from external geodata files.
package importer

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/store"
)

// nameFields are shapefile attribute names tried, in order, for the
// meeting-point name.
var nameFields = []string{"name", "fullname", "label"}

// MeetingPoints reads point records from a shapefile and creates a meeting
// point for each, optionally assigned to a group. Non-point shapes and
// out-of-range coordinates are skipped, not fatal. Returns the number of
// meeting points created.
func MeetingPoints(ctx context.Context, st store.Store, shpPath, groupID string) (int, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return 0, eris.Wrapf(err, "importer: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := findNameField(reader.Fields())

	var meetings []*model.MeetingPoint
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		point, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		loc := geometry.Point{Lat: point.Y, Lng: point.X}
		if model.ValidateLocation(loc) != nil {
			skipped++
			continue
		}

		name := ""
		if nameIdx >= 0 {
			name = cleanAttribute(reader.Attribute(nameIdx))
		}
		if name == "" {
			name = shpPath
		}

		meetings = append(meetings, &model.MeetingPoint{Name: name, Location: loc, GroupID: groupID})
	}

	if skipped > 0 {
		zap.L().Warn("importer: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	if err := st.CreateMeetings(ctx, meetings); err != nil {
		return 0, eris.Wrapf(err, "importer: insert meetings from %s", shpPath)
	}

	return len(meetings), nil
}

// findNameField locates the first usable name attribute, or -1.
func findNameField(fields []shp.Field) int {
	for _, want := range nameFields {
		for i, f := range fields {
			if strings.EqualFold(cleanAttribute(f.String()), want) {
				return i
			}
		}
	}
	return -1
}

// cleanAttribute strips dBase padding from attribute values.
func cleanAttribute(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}
