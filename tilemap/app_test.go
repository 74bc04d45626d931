package tilemap

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"

	"github.com/talvor/tmxblueprints/scene"
)

func TestAppTick(t *testing.T) {
	fsys := fstest.MapFS{
		"maps/level.tmx": {Data: []byte(uniformMap(3, 2, 1))},
	}
	app := NewApp(fsys)
	app.Logger = zerolog.Nop()
	app.Maps.Logger = zerolog.Nop()
	app.AddPlugin(TilemapPlugin{})

	id, root, err := app.SpawnMap(context.Background(), "maps/level.tmx", scene.Identity())
	if err != nil {
		t.Fatal(err)
	}
	app.Maps.Wait()
	if err := app.Maps.Err(id); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	for range 2 {
		if err := app.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}

	layers := app.Graph.Children(root)
	if len(layers) != 1 || len(app.Graph.Children(layers[0])) != 6 {
		t.Fatalf("scene under map: %d layers", len(layers))
	}

	app.Maps.Reload(context.Background(), "maps/level.tmx")
	app.Maps.Wait()
	if err := app.Tick(); err != nil {
		t.Fatal(err)
	}
	if app.Graph.Contains(layers[0]) {
		t.Error("layer of the previous revision survived a reload")
	}
	if n := len(app.Graph.Children(root)); n != 1 {
		t.Errorf("layers after reload = %d, want 1", n)
	}
}

func TestTilemapPluginRegistersMarkers(t *testing.T) {
	src := `<map orientation="orthogonal" width="1" height="1" tilewidth="10" tileheight="10">
 ` + tilesetXML + `
 <layer name="hidden" width="1" height="1">
  <properties><property name="RemoveMap" type="bool" value="true"/></properties>
  <data encoding="csv">1</data>
 </layer>
 <objectgroup name="marks">
  <properties><property name="MapObject" type="bool" value="true"/></properties>
 </objectgroup>
</map>`
	app := NewApp(fstest.MapFS{"maps/m.tmx": {Data: []byte(src)}})
	app.Logger = zerolog.Nop()
	app.Maps.Logger = zerolog.Nop()
	app.AddPlugin(TilemapPlugin{})

	for _, name := range []string{"RemoveMap", "MapObject"} {
		if _, ok := app.Registry.Lookup(name); !ok {
			t.Errorf("%s not registered", name)
		}
	}

	_, root, err := app.SpawnMap(context.Background(), "maps/m.tmx", scene.Identity())
	if err != nil {
		t.Fatal(err)
	}
	app.Maps.Wait()
	if err := app.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	layers := app.Graph.Children(root)
	if len(layers) != 1 {
		t.Fatalf("layers = %d, want only the object layer", len(layers))
	}
	if !scene.Has[MapObject](app.Graph, layers[0]) {
		t.Error("object layer lacks the bound MapObject")
	}
}

func TestAppTickRunsEverySystem(t *testing.T) {
	app := NewApp(fstest.MapFS{})
	app.Logger = zerolog.Nop()

	var ran []string
	boom := errors.New("boom")
	app.AddSystem("a", func() error { ran = append(ran, "a"); return boom })
	app.AddSystem("b", func() error { ran = append(ran, "b"); return nil })

	if err := app.Tick(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(ran) != 2 {
		t.Errorf("ran %v, want both systems", ran)
	}
}

func TestSpawnMapWithoutPlugin(t *testing.T) {
	app := NewApp(fstest.MapFS{})
	if _, _, err := app.SpawnMap(context.Background(), "x.tmx", scene.Identity()); err == nil {
		t.Error("expected an error without TilemapPlugin")
	}
}
