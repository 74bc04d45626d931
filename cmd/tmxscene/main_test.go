package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/talvor/tmxblueprints/internal/config"
	"github.com/talvor/tmxblueprints/scene"
)

const demoMap = `<map orientation="orthogonal" width="2" height="2" tilewidth="16" tileheight="16">
 <properties>
  <property name="ExampleComponent" type="bool" value="true"/>
 </properties>
 <tileset firstgid="1" name="t" tilewidth="16" tileheight="16"><image source="t.png"/></tileset>
 <layer id="1" name="ground" width="2" height="2">
  <properties><property name="ExampleComponentWithInt" type="int" value="7"/></properties>
  <data encoding="csv">1,1,1,1</data>
 </layer>
 <objectgroup id="2" name="things">
  <object id="1" name="hero" x="16" y="8">
   <properties>
    <property name="ComplexType" value="(name: &quot;Ann&quot;, strength: 3, dexterity: 1.5)"/>
    <property name="Facing" value="west"/>
    <property name="LinearRgba" type="color" value="#ff00ff00"/>
   </properties>
  </object>
 </objectgroup>
</map>`

func testScene(t *testing.T) (*config.Config, string) {
	t.Helper()
	log.Logger = zerolog.Nop()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "maps"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "maps", "demo.tmx"), []byte(demoMap), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.AssetRoot = dir
	return cfg, "maps/demo.tmx"
}

func TestDump(t *testing.T) {
	cfg, path := testScene(t)
	app, root, err := loadScene(context.Background(), cfg, path)
	if err != nil {
		t.Fatalf("loadScene failed: %v", err)
	}

	var buf bytes.Buffer
	writeTree(&buf, app.Graph, root, false)
	writeObjects(&buf, app.Graph, root)
	out := buf.String()

	for _, want := range []string{"Layer-ground", "tileset=0 tiles=4 square", "Layer-things", `object`, `"hero" at (8, 0)`} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tile-") {
		t.Errorf("tile nodes printed without --tiles:\n%s", out)
	}
}

func TestProps(t *testing.T) {
	cfg, path := testScene(t)
	app, root, err := loadScene(context.Background(), cfg, path)
	if err != nil {
		t.Fatalf("loadScene failed: %v", err)
	}

	var buf bytes.Buffer
	writeRecords(&buf, app.Graph, app.Registry, root)
	out := buf.String()
	for _, want := range []string{
		"ExampleComponent = {}",
		"ExampleComponentWithInt = {Value:7}",
		"ComplexType = {Name:Ann Strength:3 Dexterity:1.5}",
		"Facing = 3",
		"LinearRgba = {Red:0 Green:1 Blue:0 Alpha:1}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("props lacks %q:\n%s", want, out)
		}
	}

	hero := app.Graph.With(scene.RecordName[ComplexType]())
	if len(hero) != 1 {
		t.Errorf("ComplexType on %d nodes, want 1", len(hero))
	}
}

func TestLoadSceneMissingMap(t *testing.T) {
	cfg, _ := testScene(t)
	if _, _, err := loadScene(context.Background(), cfg, "maps/none.tmx"); err == nil {
		t.Error("expected an error for a missing map")
	}
}
