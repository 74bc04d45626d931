package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/talvor/tmxblueprints/blueprint"
	"github.com/talvor/tmxblueprints/internal/config"
	"github.com/talvor/tmxblueprints/scene"
	"github.com/talvor/tmxblueprints/tilemap"
)

// Records maps can bind through properties.

type ExampleComponent struct{}

type ExampleComponentWithInt struct{ Value int32 }

type ExampleBoolComponent struct{ Value bool }

type ComplexType struct {
	Name      string
	Strength  int32
	Dexterity float32
}

type Facing int

const (
	North Facing = iota
	East
	South
	West
)

func registerRecords(r *blueprint.Registry) {
	blueprint.Register[ExampleComponent](r)
	blueprint.Register[ExampleComponentWithInt](r)
	blueprint.Register[ExampleBoolComponent](r)
	blueprint.Register[ComplexType](r)
	blueprint.Register[blueprint.LinearRgba](r)
	blueprint.RegisterEnum(r,
		blueprint.Variant[Facing]{Name: "North", Value: North},
		blueprint.Variant[Facing]{Name: "East", Value: East},
		blueprint.Variant[Facing]{Name: "South", Value: South},
		blueprint.Variant[Facing]{Name: "West", Value: West},
	)
}

// newApp returns an app reading assets below cfg.AssetRoot, with the demo
// records registered.
func newApp(cfg *config.Config) *tilemap.App {
	app := tilemap.NewApp(os.DirFS(cfg.AssetRoot))
	app.Logger = log.Logger
	app.Maps.Logger = log.Logger
	registerRecords(app.Registry)
	return app.AddPlugin(tilemap.TilemapPlugin{})
}

// loadScene loads path and runs one tick so the map is synchronized.
func loadScene(ctx context.Context, cfg *config.Config, path string) (*tilemap.App, scene.NodeID, error) {
	app := newApp(cfg)
	id, root, err := app.SpawnMap(ctx, path, scene.Identity())
	if err != nil {
		return nil, scene.None, err
	}
	app.Maps.Wait()
	if err := app.Maps.Err(id); err != nil {
		return nil, scene.None, err
	}
	if err := app.Tick(); err != nil {
		log.Warn().Err(err).Msg("map synchronized with errors")
	}
	if len(app.Graph.Children(root)) == 0 {
		return nil, scene.None, fmt.Errorf("map %s produced no layers", path)
	}
	return app, root, nil
}
