package tilemap

import (
	"github.com/go-gl/mathgl/mgl32"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/scene"
)

// Column-major bases mapping tile coordinates to grid units.
var (
	diamondBasis = mgl32.Mat2{0.5, -0.5, 0.5, 0.5}
	hexRowBasis  = mgl32.Mat2{1, 0, 0.5, 0.75}
)

func mapTypeFor(o tmx.Orientation) MapType {
	switch o {
	case tmx.Isometric:
		return IsometricDiamond
	case tmx.Staggered:
		return IsometricStaggered
	case tmx.Hexagonal:
		return HexagonRow
	}
	return Square
}

// CenterInWorld is the center of the tile at pos relative to the center of
// tile (0, 0).
func CenterInWorld(pos TilePos, grid mgl32.Vec2, t MapType) mgl32.Vec2 {
	p := mgl32.Vec2{float32(pos.X), float32(pos.Y)}
	switch t {
	case IsometricDiamond:
		p = diamondBasis.Mul2x1(p)
	case IsometricStaggered:
		// Odd rows shift right by half a tile; rows are half a tile apart.
		if pos.Y%2 == 1 {
			p[0] += 0.5
		}
		p[1] *= 0.5
	case HexagonRow:
		p = hexRowBasis.Mul2x1(p)
	}
	return mgl32.Vec2{p.X() * grid.X(), p.Y() * grid.Y()}
}

// CenterTransform translates a map of size so that its middle sits at the
// parent origin, at depth z.
func CenterTransform(size MapSize, grid mgl32.Vec2, t MapType, z float32) scene.Transform {
	if size.X == 0 || size.Y == 0 {
		return scene.FromXYZ(0, 0, z)
	}
	low := CenterInWorld(TilePos{}, grid, t)
	high := CenterInWorld(TilePos{X: size.X - 1, Y: size.Y - 1}, grid, t)
	diff := high.Sub(low)
	return scene.FromXYZ(-diff.X()/2, -diff.Y()/2, z)
}
