package renderer

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/scene"
	"github.com/talvor/tmxblueprints/tilemap"
)

// Renderer draws the tile batches of a scene graph. World y points up and
// the world origin sits at the center of the screen.
type Renderer struct {
	Graph  *scene.Graph
	Images *ImageCache
	Logger zerolog.Logger

	Camera mgl32.Vec2
	Scale  float64
}

func NewRenderer(g *scene.Graph, images *ImageCache) *Renderer {
	return &Renderer{Graph: g, Images: images, Logger: log.Logger, Scale: 1}
}

type batch struct {
	node  scene.NodeID
	depth float32
	tm    tilemap.Tilemap
}

// batches returns every Tilemap payload, back to front.
func (r *Renderer) batches() []batch {
	var out []batch
	for _, node := range r.Graph.With(scene.RecordName[tilemap.Tilemap]()) {
		if scene.Has[tilemap.RemoveMap](r.Graph, node) {
			continue
		}
		tm, _ := scene.Get[tilemap.Tilemap](r.Graph, node)
		out = append(out, batch{node: node, depth: r.Graph.GlobalTransform(node).Translation().Z(), tm: tm})
	}
	slices.SortStableFunc(out, func(a, b batch) int {
		if c := cmp.Compare(a.depth, b.depth); c != 0 {
			return c
		}
		if c := cmp.Compare(a.tm.Layer, b.tm.Layer); c != 0 {
			return c
		}
		return cmp.Compare(a.tm.Tileset, b.tm.Tileset)
	})
	return out
}

// Draw draws every tile batch onto screen. Batches whose images fail to
// load are logged and skipped.
func (r *Renderer) Draw(screen *ebiten.Image) {
	bounds := screen.Bounds()
	origin := mgl32.Vec2{float32(bounds.Dx()) / 2, float32(bounds.Dy()) / 2}

	for _, b := range r.batches() {
		if err := r.drawBatch(screen, b, origin); err != nil {
			r.Logger.Warn().Err(err).Int("layer", b.tm.Layer).Int("tileset", b.tm.Tileset).Msg("skipping tile batch")
		}
	}
}

func (r *Renderer) drawBatch(screen *ebiten.Image, b batch, origin mgl32.Vec2) error {
	tm := b.tm
	global := r.Graph.GlobalTransform(b.node)
	tw, th := int(tm.TileSize.X()), int(tm.TileSize.Y())
	spacing := int(tm.Spacing.X())

	var sheet *ebiten.Image
	columns := 0
	if tm.Texture.Kind == tmx.TextureSingle {
		var err error
		if sheet, err = r.Images.Image(tm.Texture.Images[0]); err != nil {
			return err
		}
		columns = Columns(sheet.Bounds().Dx(), tw, spacing)
	}

	for _, id := range tm.Storage.Tiles() {
		tile, ok := scene.Get[tilemap.Tile](r.Graph, id)
		if !ok {
			continue
		}

		var src *ebiten.Image
		if sheet != nil {
			src = sheet.SubImage(SubRect(int(tile.TextureIndex), columns, tw, th, spacing)).(*ebiten.Image)
		} else {
			img, err := r.Images.Image(tm.Texture.Images[tile.TextureIndex])
			if err != nil {
				return err
			}
			src = img
		}

		w, h := float64(src.Bounds().Dx()), float64(src.Bounds().Dy())
		center := tilemap.CenterInWorld(tile.Pos, tm.GridSize, tm.Type)
		world := global.Apply(mgl32.Vec3{center.X(), center.Y(), 0})

		op := &ebiten.DrawImageOptions{}
		op.GeoM = TileGeoM(tile.Flip, w, h)
		if tile.Flip.D {
			w, h = h, w
		}
		op.GeoM.Translate(-w/2, -h/2)
		op.GeoM.Scale(r.Scale, r.Scale)
		x, y := r.ToScreen(world.Vec2(), origin)
		op.GeoM.Translate(x, y)
		screen.DrawImage(src, op)
	}
	return nil
}

// ToScreen maps a world point to screen pixels.
func (r *Renderer) ToScreen(p, origin mgl32.Vec2) (float64, float64) {
	d := p.Sub(r.Camera)
	return float64(origin.X()) + float64(d.X())*r.Scale, float64(origin.Y()) - float64(d.Y())*r.Scale
}

// Columns is the number of tiles per row of a sheet imageWidth pixels wide.
func Columns(imageWidth, tileWidth, spacing int) int {
	if tileWidth <= 0 {
		return 0
	}
	return max((imageWidth+spacing)/(tileWidth+spacing), 1)
}

// SubRect is the source rectangle of tile index in a sheet.
func SubRect(index, columns, tileWidth, tileHeight, spacing int) image.Rectangle {
	if columns <= 0 {
		columns = 1
	}
	x := (index % columns) * (tileWidth + spacing)
	y := (index / columns) * (tileHeight + spacing)
	return image.Rect(x, y, x+tileWidth, y+tileHeight)
}

// TileGeoM orients a w×h tile image per flip. The anti-diagonal flip is
// applied first, then the horizontal and vertical ones; the result covers
// the same top-left anchored box as the unflipped image, transposed for a
// diagonal flip.
func TileGeoM(flip tilemap.TileFlip, w, h float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.Translate(-w/2, -h/2)
	bw, bh := w, h
	if flip.D {
		g.Rotate(math.Pi / 2)
		g.Scale(-1, 1)
		bw, bh = h, w
	}
	if flip.X {
		g.Scale(-1, 1)
	}
	if flip.Y {
		g.Scale(1, -1)
	}
	g.Translate(bw/2, bh/2)
	return g
}
