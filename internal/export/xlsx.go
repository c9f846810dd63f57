// Package export writes entity rosters to spreadsheet files.
package export

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/flockmap/flock-cli/internal/store"
)

// Roster writes one sheet per entity kind to an XLSX workbook at path.
// Group names are denormalized onto person and meeting rows so the export
// is readable without chasing ids.
func Roster(ctx context.Context, st store.Store, path string) error {
	groups, err := st.ListGroups(ctx)
	if err != nil {
		return err
	}
	groupNames := make(map[string]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}

	wb := xlsx.NewFile()

	sheet, err := wb.AddSheet("Groups")
	if err != nil {
		return eris.Wrap(err, "export: add groups sheet")
	}
	addHeader(sheet, "ID", "Name", "Color", "Requirements")
	for _, g := range groups {
		row := sheet.AddRow()
		addCells(row, g.ID, g.Name, g.Color, g.Requirements)
	}

	persons, err := st.ListPersons(ctx)
	if err != nil {
		return err
	}
	sheet, err = wb.AddSheet("People")
	if err != nil {
		return eris.Wrap(err, "export: add people sheet")
	}
	addHeader(sheet, "ID", "Name", "Lat", "Lng", "Group")
	for _, p := range persons {
		row := sheet.AddRow()
		addCells(row, p.ID, p.Name, formatCoord(p.Location.Lat), formatCoord(p.Location.Lng), groupNames[p.GroupID])
	}

	meetings, err := st.ListMeetings(ctx)
	if err != nil {
		return err
	}
	sheet, err = wb.AddSheet("Meeting Points")
	if err != nil {
		return eris.Wrap(err, "export: add meetings sheet")
	}
	addHeader(sheet, "ID", "Name", "Lat", "Lng", "Group")
	for _, m := range meetings {
		row := sheet.AddRow()
		addCells(row, m.ID, m.Name, formatCoord(m.Location.Lat), formatCoord(m.Location.Lng), groupNames[m.GroupID])
	}

	families, err := st.ListFamilies(ctx)
	if err != nil {
		return err
	}
	sheet, err = wb.AddSheet("Families")
	if err != nil {
		return eris.Wrap(err, "export: add families sheet")
	}
	addHeader(sheet, "ID", "Name", "Lat", "Lng")
	for _, f := range families {
		row := sheet.AddRow()
		addCells(row, f.ID, f.Name, formatCoord(f.Location.Lat), formatCoord(f.Location.Lng))
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	addCells(row, names...)
}

func addCells(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
