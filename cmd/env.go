package main

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/flockmap/flock-cli/internal/region"
	"github.com/flockmap/flock-cli/internal/render"
	"github.com/flockmap/flock-cli/internal/store"
)

// openStore builds the configured entity store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// newDispatcher wires a region engine over the entity store with a GeoJSON
// rendering surface. Returns the dispatcher and its renderer.
func newDispatcher(st store.Store) (*region.Dispatcher, *render.GeoJSONRenderer) {
	renderer := render.NewGeoJSON()
	regions := region.NewStore(renderer)
	return region.NewDispatcher(regions, st), renderer
}

// sortByName orders entity display lists with locale-aware, case-insensitive
// collation.
func sortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}
