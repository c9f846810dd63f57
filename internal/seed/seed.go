// Package seed loads entity fixtures from YAML files, used to bootstrap a
// fresh database or set up demo data.
package seed

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/store"
)

// File is the top-level fixture document. Persons and meetings reference
// groups and families by name, not id.
type File struct {
	Groups   []GroupSeed   `yaml:"groups"`
	Families []FamilySeed  `yaml:"families"`
	Persons  []PersonSeed  `yaml:"persons"`
	Meetings []MeetingSeed `yaml:"meetings"`
}

// GroupSeed describes one group.
type GroupSeed struct {
	Name         string `yaml:"name"`
	Color        string `yaml:"color"`
	Requirements string `yaml:"requirements"`
}

// FamilySeed describes one family.
type FamilySeed struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// PersonSeed describes one person.
type PersonSeed struct {
	Name   string  `yaml:"name"`
	Lat    float64 `yaml:"lat"`
	Lng    float64 `yaml:"lng"`
	Group  string  `yaml:"group"`
	Family string  `yaml:"family"`
}

// MeetingSeed describes one meeting point.
type MeetingSeed struct {
	Name  string  `yaml:"name"`
	Lat   float64 `yaml:"lat"`
	Lng   float64 `yaml:"lng"`
	Group string  `yaml:"group"`
}

// Counts reports how many entities were created.
type Counts struct {
	Groups   int
	Families int
	Persons  int
	Meetings int
}

// Load parses a YAML fixture file and creates its entities in order:
// groups, families, then the persons and meetings that reference them.
func Load(ctx context.Context, st store.Store, path string) (Counts, error) {
	var counts Counts

	data, err := os.ReadFile(path)
	if err != nil {
		return counts, eris.Wrapf(err, "seed: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return counts, eris.Wrapf(err, "seed: parse %s", path)
	}

	groupIDs := make(map[string]string, len(f.Groups))
	for _, gs := range f.Groups {
		g := &model.Group{Name: gs.Name, Color: gs.Color, Requirements: gs.Requirements}
		if err := st.CreateGroup(ctx, g); err != nil {
			return counts, eris.Wrapf(err, "seed: group %s", gs.Name)
		}
		groupIDs[gs.Name] = g.ID
		counts.Groups++
	}

	familyIDs := make(map[string]string, len(f.Families))
	for _, fs := range f.Families {
		fam := &model.Family{Name: fs.Name, Location: geometry.Point{Lat: fs.Lat, Lng: fs.Lng}}
		if err := st.CreateFamily(ctx, fam); err != nil {
			return counts, eris.Wrapf(err, "seed: family %s", fs.Name)
		}
		familyIDs[fs.Name] = fam.ID
		counts.Families++
	}

	for _, ps := range f.Persons {
		groupID, err := resolve(groupIDs, ps.Group, "group")
		if err != nil {
			return counts, eris.Wrapf(err, "seed: person %s", ps.Name)
		}
		familyID, err := resolve(familyIDs, ps.Family, "family")
		if err != nil {
			return counts, eris.Wrapf(err, "seed: person %s", ps.Name)
		}
		p := &model.Person{
			Name:     ps.Name,
			Location: geometry.Point{Lat: ps.Lat, Lng: ps.Lng},
			GroupID:  groupID,
			FamilyID: familyID,
		}
		if err := st.CreatePerson(ctx, p); err != nil {
			return counts, eris.Wrapf(err, "seed: person %s", ps.Name)
		}
		counts.Persons++
	}

	for _, ms := range f.Meetings {
		groupID, err := resolve(groupIDs, ms.Group, "group")
		if err != nil {
			return counts, eris.Wrapf(err, "seed: meeting %s", ms.Name)
		}
		m := &model.MeetingPoint{
			Name:     ms.Name,
			Location: geometry.Point{Lat: ms.Lat, Lng: ms.Lng},
			GroupID:  groupID,
		}
		if err := st.CreateMeeting(ctx, m); err != nil {
			return counts, eris.Wrapf(err, "seed: meeting %s", ms.Name)
		}
		counts.Meetings++
	}

	return counts, nil
}

// resolve maps a fixture name reference to a created id. Empty references
// stay empty; unknown ones are an error so typos do not silently orphan
// entities.
func resolve(ids map[string]string, name, kind string) (string, error) {
	if name == "" {
		return "", nil
	}
	id, ok := ids[name]
	if !ok {
		return "", eris.Errorf("seed: unknown %s %q", kind, name)
	}
	return id, nil
}
