package tilemap

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	tmx "github.com/talvor/tmxblueprints"
)

func TestCenterInWorld(t *testing.T) {
	grid := mgl32.Vec2{16, 8}
	tests := []struct {
		typ  MapType
		pos  TilePos
		want mgl32.Vec2
	}{
		{Square, TilePos{X: 2, Y: 3}, mgl32.Vec2{32, 24}},
		{IsometricDiamond, TilePos{X: 1, Y: 0}, mgl32.Vec2{8, -4}},
		{IsometricDiamond, TilePos{X: 1, Y: 1}, mgl32.Vec2{16, 0}},
		{IsometricStaggered, TilePos{X: 0, Y: 1}, mgl32.Vec2{8, 4}},
		{IsometricStaggered, TilePos{X: 1, Y: 2}, mgl32.Vec2{16, 8}},
		{HexagonRow, TilePos{X: 0, Y: 2}, mgl32.Vec2{16, 12}},
	}
	for _, tt := range tests {
		if got := CenterInWorld(tt.pos, grid, tt.typ); !got.ApproxEqual(tt.want) {
			t.Errorf("CenterInWorld(%v, %v) = %v, want %v", tt.pos, tt.typ, got, tt.want)
		}
	}
}

func TestCenterTransform(t *testing.T) {
	got := CenterTransform(MapSize{X: 11, Y: 11}, mgl32.Vec2{10, 10}, Square, 3).Translation()
	if want := (mgl32.Vec3{-50, -50, 3}); !got.ApproxEqual(want) {
		t.Errorf("translation = %v, want %v", got, want)
	}

	got = CenterTransform(MapSize{}, mgl32.Vec2{10, 10}, Square, 1).Translation()
	if want := (mgl32.Vec3{0, 0, 1}); got != want {
		t.Errorf("empty map translation = %v, want %v", got, want)
	}
}

func TestMapTypeFor(t *testing.T) {
	tests := map[tmx.Orientation]MapType{
		tmx.Orthogonal: Square,
		tmx.Isometric:  IsometricDiamond,
		tmx.Staggered:  IsometricStaggered,
		tmx.Hexagonal:  HexagonRow,
	}
	for o, want := range tests {
		if got := mapTypeFor(o); got != want {
			t.Errorf("mapTypeFor(%v) = %v, want %v", o, got, want)
		}
	}
}

func TestTileStorage(t *testing.T) {
	s := NewTileStorage(MapSize{X: 2, Y: 2})
	s.Set(TilePos{X: 1, Y: 1}, 7)
	s.Set(TilePos{X: 5, Y: 0}, 8)

	if id, ok := s.Get(TilePos{X: 1, Y: 1}); !ok || id != 7 {
		t.Errorf("Get = %v, %v, want 7", id, ok)
	}
	if _, ok := s.Get(TilePos{X: 0, Y: 0}); ok {
		t.Error("empty cell reported as set")
	}
	if s.Len() != 1 || len(s.Tiles()) != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}
