package tilemap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/blueprint"
	"github.com/talvor/tmxblueprints/scene"
)

// System is one per-tick step of an App.
type System func() error

type namedSystem struct {
	name string
	run  System
}

// Plugin registers loaders and systems with an App.
type Plugin interface {
	Build(a *App)
}

// App owns a scene graph, an asset cache and a type registry, and runs its
// systems in registration order on every Tick.
type App struct {
	Graph    *scene.Graph
	Maps     *tmx.MapManager
	Registry *blueprint.Registry
	Logger   zerolog.Logger

	// Synchronizer is set by TilemapPlugin.
	Synchronizer *Synchronizer

	systems []namedSystem
}

func NewApp(fsys fs.FS) *App {
	return &App{
		Graph:    scene.NewGraph(),
		Maps:     tmx.NewMapManager(fsys),
		Registry: blueprint.NewRegistry(),
		Logger:   log.Logger,
	}
}

func (a *App) AddPlugin(p Plugin) *App {
	p.Build(a)
	return a
}

func (a *App) AddSystem(name string, run System) *App {
	a.systems = append(a.systems, namedSystem{name: name, run: run})
	return a
}

// Tick runs every system once. A failing system is logged and does not stop
// the systems after it.
func (a *App) Tick() error {
	var errs []error
	for _, s := range a.systems {
		if err := s.run(); err != nil {
			a.Logger.Error().Err(err).Str("system", s.name).Msg("system failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// SpawnMap starts loading the map at path and creates its instance node.
func (a *App) SpawnMap(ctx context.Context, path string, t scene.Transform) (tmx.AssetID, scene.NodeID, error) {
	if a.Synchronizer == nil {
		return 0, scene.None, errors.New("tilemap: TilemapPlugin not added")
	}
	id := a.Maps.Load(ctx, path)
	node, err := a.Synchronizer.SpawnMap(id, t)
	return id, node, err
}

// TilemapPlugin registers the TMX loader, the RemoveMap and MapObject
// records, and the sync and cleanup systems. Cleanup runs after sync so
// nodes marked in a pass are gone by the end of the same tick.
type TilemapPlugin struct{}

func (TilemapPlugin) Build(a *App) {
	a.Maps.RegisterLoader(tmx.TMXLoader{Logger: a.Logger})
	blueprint.Register[RemoveMap](a.Registry)
	blueprint.Register[MapObject](a.Registry)

	b := blueprint.NewBinder(a.Registry)
	b.Logger = a.Logger
	s := NewSynchronizer(a.Graph, a.Maps, b)
	s.Logger = a.Logger
	a.Synchronizer = s

	a.AddSystem("tilemap-sync", s.Sync)
	a.AddSystem("tilemap-cleanup", func() error {
		s.Cleanup()
		return nil
	})
}
