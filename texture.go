package tmx

import "fmt"

// TextureKind selects how a tileset's images are handed to the renderer.
type TextureKind int

const (
	// TextureSingle is one shared image; tile ids index into it directly.
	TextureSingle TextureKind = iota
	// TextureVector is one image per tile; tile ids go through the offset table.
	TextureVector
)

func (k TextureKind) String() string {
	if k == TextureVector {
		return "vector"
	}
	return "single"
}

// TextureStrategy holds the image references of one tileset. Single
// strategies have exactly one image.
type TextureStrategy struct {
	Kind   TextureKind
	Images []string
}

// TileKey addresses a tile by tileset index and local tile id.
type TileKey struct {
	Tileset int
	ID      TileID
}

// TextureLayout is the texture strategy of every tileset of a map, plus the
// offset of each per-tile image inside its tileset's image vector.
type TextureLayout struct {
	Textures map[int]TextureStrategy
	Offsets  map[TileKey]uint32
}

// ResolveTextures picks a texture strategy for every tileset of m. Tilesets
// with a shared image use it; the others get a vector of their per-tile
// images in ascending tile id order.
func ResolveTextures(m *Map) *TextureLayout {
	tl := &TextureLayout{
		Textures: make(map[int]TextureStrategy, len(m.Tilesets)),
		Offsets:  make(map[TileKey]uint32),
	}

	for i := range m.Tilesets {
		ts := &m.Tilesets[i]
		if ts.Image != nil {
			tl.Textures[i] = TextureStrategy{Kind: TextureSingle, Images: []string{ts.Image.Source}}
			continue
		}

		images := make([]string, 0, len(ts.Tiles))
		for _, t := range ts.Tiles {
			if t.Image == nil {
				continue
			}
			tl.Offsets[TileKey{Tileset: i, ID: t.ID}] = uint32(len(images))
			images = append(images, t.Image.Source)
		}
		tl.Textures[i] = TextureStrategy{Kind: TextureVector, Images: images}
	}

	return tl
}

// TextureIndex returns the index a renderer uses for tile id of tileset.
// It panics when a vector tileset has no offset for id: the offset table is
// built from the same tileset, so a miss means the map and its layout
// disagree.
func (tl *TextureLayout) TextureIndex(tileset int, id TileID) uint32 {
	if tl.Textures[tileset].Kind == TextureSingle {
		return uint32(id)
	}
	off, ok := tl.Offsets[TileKey{Tileset: tileset, ID: id}]
	if !ok {
		panic(fmt.Sprintf("tmx: no image offset for tile %v", TileKey{Tileset: tileset, ID: id}))
	}
	return off
}

func (k TileKey) String() string {
	return fmt.Sprintf("(%d, %d)", k.Tileset, k.ID)
}
