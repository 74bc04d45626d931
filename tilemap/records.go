package tilemap

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/scene"
)

// MapHandle binds a map node to the asset it is built from.
type MapHandle struct {
	Asset tmx.AssetID
}

// RemoveMap marks a node for teardown by Cleanup.
type RemoveMap struct{}

// MapObject marks a node built from an object of an object layer.
type MapObject struct{}

type MapSize struct {
	X, Y uint32
}

func (s MapSize) Count() int { return int(s.X) * int(s.Y) }

// TilePos is a tile position in scene coordinates: row 0 is the bottom row.
type TilePos struct {
	X, Y uint32
}

type TileFlip struct {
	X, Y, D bool
}

// Tile is the record of a tile node.
type Tile struct {
	Pos          TilePos
	Tilemap      scene.NodeID
	TextureIndex uint32
	Flip         TileFlip
}

// TileStorage indexes the tile nodes of one batch by position.
type TileStorage struct {
	Size  MapSize
	tiles []scene.NodeID
}

func NewTileStorage(size MapSize) *TileStorage {
	return &TileStorage{Size: size, tiles: make([]scene.NodeID, size.Count())}
}

func (s *TileStorage) index(pos TilePos) (int, bool) {
	if pos.X >= s.Size.X || pos.Y >= s.Size.Y {
		return 0, false
	}
	return int(pos.Y)*int(s.Size.X) + int(pos.X), true
}

func (s *TileStorage) Set(pos TilePos, id scene.NodeID) {
	if i, ok := s.index(pos); ok {
		s.tiles[i] = id
	}
}

func (s *TileStorage) Get(pos TilePos) (scene.NodeID, bool) {
	i, ok := s.index(pos)
	if !ok || s.tiles[i] == scene.None {
		return scene.None, false
	}
	return s.tiles[i], true
}

// Tiles returns the stored tile nodes, row by row from the bottom.
func (s *TileStorage) Tiles() []scene.NodeID {
	ids := make([]scene.NodeID, 0, len(s.tiles))
	for _, id := range s.tiles {
		if id != scene.None {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *TileStorage) Len() int {
	n := 0
	for _, id := range s.tiles {
		if id != scene.None {
			n++
		}
	}
	return n
}

type MapType int

const (
	Square MapType = iota
	IsometricDiamond
	IsometricStaggered
	HexagonRow
)

func (t MapType) String() string {
	switch t {
	case IsometricDiamond:
		return "isometric-diamond"
	case IsometricStaggered:
		return "isometric-staggered"
	case HexagonRow:
		return "hexagon-row"
	}
	return "square"
}

// Tilemap is the renderable payload of a layer node: every tile of one
// tileset on one layer.
type Tilemap struct {
	Layer     int
	Tileset   int
	Size      MapSize
	GridSize  mgl32.Vec2
	TileSize  mgl32.Vec2
	Spacing   mgl32.Vec2
	Type      MapType
	Texture   tmx.TextureStrategy
	Storage   *TileStorage
	Transform scene.Transform
}

// LayerStorage maps a layer index to the nodes built for it by the last
// synchronization.
type LayerStorage struct {
	Storage map[uint32][]scene.NodeID
}

// Layers returns the recorded layer indices in ascending order.
func (s LayerStorage) Layers() []uint32 {
	idx := make([]uint32, 0, len(s.Storage))
	for i := range s.Storage {
		idx = append(idx, i)
	}
	slices.Sort(idx)
	return idx
}
