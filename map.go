package tmx

import (
	"errors"
	"fmt"
)

const (
	GIDHorizontalFlip = 0x80000000
	GIDVerticalFlip   = 0x40000000
	GIDDiagonalFlip   = 0x20000000
	GIDFlip           = GIDHorizontalFlip | GIDVerticalFlip | GIDDiagonalFlip
	GIDMask           = 0x0fffffff
)

var (
	ErrUnknownEncoding       = errors.New("tmx: invalid encoding scheme")
	ErrUnknownCompression    = errors.New("tmx: invalid compression method")
	ErrInvalidDecodedDataLen = errors.New("tmx: invalid decoded data length")
	ErrUnknownOrientation    = errors.New("tmx: unknown orientation")
	ErrInvalidGID            = errors.New("tmx: gid does not belong to any tileset")
	ErrExternalTileset       = errors.New("tmx: external tileset needs a resource reader")
	ErrInvalidPropertyValue  = errors.New("tmx: invalid property value")
	ErrLayerNotFound         = errors.New("tmx: layer not found")
	ErrInvalidDimensions     = errors.New("tmx: invalid dimensions")
)

type (
	GID    uint32 // A global tile ID, flip bits included.
	TileID uint32 // A tile ID local to its tileset.
)

type Orientation int

const (
	Orthogonal Orientation = iota
	Isometric
	Staggered
	Hexagonal
)

func (o Orientation) String() string {
	switch o {
	case Orthogonal:
		return "orthogonal"
	case Isometric:
		return "isometric"
	case Staggered:
		return "staggered"
	case Hexagonal:
		return "hexagonal"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

func parseOrientation(s string) (Orientation, error) {
	switch s {
	case "orthogonal", "":
		return Orthogonal, nil
	case "isometric":
		return Isometric, nil
	case "staggered":
		return Staggered, nil
	case "hexagonal":
		return Hexagonal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
}

// Map is a decoded tile map. Treat it as read-only once Decode returns it.
type Map struct {
	Source      string
	Version     string
	Class       string
	Orientation Orientation
	Width       int
	Height      int
	TileWidth   int
	TileHeight  int
	Infinite    bool
	Properties  Properties
	Tilesets    []Tileset
	Layers      []Layer
}

func (m *Map) GetLayer(name string) (*Layer, error) {
	for i := range m.Layers {
		if m.Layers[i].Name == name {
			return &m.Layers[i], nil
		}
	}
	return nil, ErrLayerNotFound
}

// DecodeTileGID splits gid into the index of its tileset, the tile id local to
// that tileset and the flip flags. ok is false for the empty gid and for gids
// outside every tileset.
func (m *Map) DecodeTileGID(gid GID) (tile LayerTile, ok bool) {
	id := gid & GIDMask
	if id == 0 {
		return LayerTile{}, false
	}

	best := -1
	for i := range m.Tilesets {
		ts := &m.Tilesets[i]
		if id >= ts.FirstGID && (best < 0 || ts.FirstGID > m.Tilesets[best].FirstGID) {
			best = i
		}
	}
	if best < 0 {
		return LayerTile{}, false
	}

	return LayerTile{
		Tileset:        best,
		ID:             TileID(id - m.Tilesets[best].FirstGID),
		FlipHorizontal: gid&GIDHorizontalFlip != 0,
		FlipVertical:   gid&GIDVerticalFlip != 0,
		FlipDiagonal:   gid&GIDDiagonalFlip != 0,
	}, true
}

type Tileset struct {
	FirstGID   GID
	Name       string
	Source     string // Resolved path of the TSX file for external tilesets.
	TileWidth  int
	TileHeight int
	Spacing    int
	Margin     int
	TileCount  int
	Columns    int
	Image      *Image // Shared image; nil for image-collection tilesets.
	Tiles      []Tile // Sorted by ID.
	Properties Properties
}

// Tile is a per-tile declaration inside a tileset.
type Tile struct {
	ID         TileID
	Type       string
	Image      *Image
	Properties Properties
}

// Image is a reference to an image file. Source is resolved relative to the
// directory of the file that declared it; the bytes are never read here.
type Image struct {
	Source string
	Width  int
	Height int
}

type LayerKind int

const (
	TileLayer LayerKind = iota
	ObjectLayer
	ImageLayer
	GroupLayer
)

func (k LayerKind) String() string {
	switch k {
	case TileLayer:
		return "tile"
	case ObjectLayer:
		return "object"
	case ImageLayer:
		return "image"
	case GroupLayer:
		return "group"
	}
	return fmt.Sprintf("LayerKind(%d)", int(k))
}

type Layer struct {
	Index      int // Position in authoring order.
	ID         int
	Name       string
	Kind       LayerKind
	OffsetX    float64
	OffsetY    float64
	Opacity    float64
	Visible    bool
	Properties Properties

	// Tile layers only. Infinite layers have no Tiles.
	Width    int
	Height   int
	Infinite bool
	Tiles    []*LayerTile // Row-major, nil for empty cells.

	// Object layers only.
	Objects []Object
}

// TileAt returns the tile at column x and row y, in authoring coordinates.
func (l *Layer) TileAt(x, y int) (*LayerTile, bool) {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return nil, false
	}
	t := l.Tiles[y*l.Width+x]
	return t, t != nil
}

// LayerTile is one non-empty cell of a tile layer.
type LayerTile struct {
	Tileset        int
	ID             TileID
	FlipHorizontal bool
	FlipVertical   bool
	FlipDiagonal   bool
}

type Object struct {
	ID         int
	Name       string
	Type       string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Visible    bool
	Properties Properties
}
