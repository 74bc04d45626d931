package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"

	"github.com/talvor/tmxblueprints/scene"
	"github.com/talvor/tmxblueprints/tilemap"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTileGeoM(t *testing.T) {
	const w, h = 16, 8
	tests := []struct {
		flip       tilemap.TileFlip
		x, y       float64 // image point
		wantX, wnY float64
	}{
		{tilemap.TileFlip{}, 1, 2, 1, 2},
		{tilemap.TileFlip{X: true}, 0, 0, 16, 0},
		{tilemap.TileFlip{Y: true}, 0, 0, 0, 8},
		{tilemap.TileFlip{X: true, Y: true}, 16, 8, 0, 0},
		{tilemap.TileFlip{D: true}, 16, 0, 0, 16},
		{tilemap.TileFlip{D: true}, 3, 5, 5, 3},
	}
	for _, tt := range tests {
		g := TileGeoM(tt.flip, w, h)
		x, y := g.Apply(tt.x, tt.y)
		if !near(x, tt.wantX) || !near(y, tt.wnY) {
			t.Errorf("TileGeoM(%+v) maps (%v, %v) to (%v, %v), want (%v, %v)", tt.flip, tt.x, tt.y, x, y, tt.wantX, tt.wnY)
		}
	}
}

func TestSubRect(t *testing.T) {
	cols := Columns(33, 16, 1)
	if cols != 2 {
		t.Fatalf("Columns = %d, want 2", cols)
	}
	tests := []struct {
		index int
		want  image.Rectangle
	}{
		{0, image.Rect(0, 0, 16, 16)},
		{1, image.Rect(17, 0, 33, 16)},
		{3, image.Rect(17, 17, 33, 33)},
	}
	for _, tt := range tests {
		if got := SubRect(tt.index, cols, 16, 16, 1); got != tt.want {
			t.Errorf("SubRect(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
	if got := Columns(10, 0, 0); got != 0 {
		t.Errorf("Columns with no tile width = %d, want 0", got)
	}
}

func TestToScreen(t *testing.T) {
	r := &Renderer{Scale: 2, Camera: mgl32.Vec2{10, 0}}
	x, y := r.ToScreen(mgl32.Vec2{15, 5}, mgl32.Vec2{100, 50})
	if x != 110 || y != 40 {
		t.Errorf("ToScreen = (%v, %v), want (110, 40)", x, y)
	}
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.RGBA{B: 255, A: 255}), image.Point{}, draw.Src)
	src.Set(1, 1, color.RGBA{R: 255, A: 255})

	var pngBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, src); err != nil {
		t.Fatal(err)
	}
	fsys := fstest.MapFS{
		"a.png":   {Data: pngBuf.Bytes()},
		"a.bmp":   {Data: bmpBuf.Bytes()},
		"bad.png": {Data: []byte("nope")},
	}

	for _, name := range []string{"a.png", "a.bmp"} {
		img, err := DecodeImage(fsys, name)
		if err != nil {
			t.Errorf("DecodeImage(%s) failed: %v", name, err)
			continue
		}
		if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
			t.Errorf("%s bounds = %v", name, img.Bounds())
		}
		if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xffff {
			t.Errorf("%s pixel red = %#x", name, r)
		}
	}
	if _, err := DecodeImage(fsys, "bad.png"); err == nil {
		t.Error("expected a decode error")
	}
	if _, err := DecodeImage(fsys, "missing.png"); err == nil {
		t.Error("expected an open error")
	}
}

func TestBatchesBackToFront(t *testing.T) {
	g := scene.NewGraph()
	add := func(layer, tileset int, z float32) scene.NodeID {
		id, _ := g.Spawn("layer", scene.None, scene.FromXYZ(0, 0, z))
		scene.Insert(g, id, tilemap.Tilemap{Layer: layer, Tileset: tileset})
		return id
	}
	front := add(2, 0, 2)
	back := add(0, 1, 0)
	mid := add(0, 0, 0)
	stale := add(1, 0, 1)
	scene.Insert(g, stale, tilemap.RemoveMap{})

	r := NewRenderer(g, nil)
	got := r.batches()
	want := []scene.NodeID{mid, back, front}
	if len(got) != len(want) {
		t.Fatalf("batches = %d, want %d", len(got), len(want))
	}
	for i, b := range got {
		if b.node != want[i] {
			t.Errorf("batch %d = %v, want %v", i, b.node, want[i])
		}
	}
}
