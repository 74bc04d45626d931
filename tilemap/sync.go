// Package tilemap keeps a scene graph in step with the maps held by an
// asset cache. Each map instance is a node carrying a MapHandle; every sync
// pass rebuilds the layer, tile and object nodes of the instances whose map
// changed and binds map, layer and object properties onto them.
package tilemap

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/blueprint"
	"github.com/talvor/tmxblueprints/scene"
)

// DefaultObjectName names object nodes whose object has no name.
const DefaultObjectName = "Object"

// AssetSource is the part of an asset cache the synchronizer reads.
// tmx.MapManager implements it.
type AssetSource interface {
	Get(id tmx.AssetID) (*tmx.Asset, bool)
	DrainEvents() []tmx.AssetEvent
}

type instance struct {
	asset  tmx.AssetID
	layers LayerStorage
}

type Synchronizer struct {
	Graph  *scene.Graph
	Assets AssetSource
	Binder *blueprint.Binder
	Logger zerolog.Logger

	instances map[scene.NodeID]*instance
	attached  []tmx.AssetID
}

func NewSynchronizer(g *scene.Graph, assets AssetSource, b *blueprint.Binder) *Synchronizer {
	return &Synchronizer{
		Graph:     g,
		Assets:    assets,
		Binder:    b,
		Logger:    log.Logger,
		instances: make(map[scene.NodeID]*instance),
	}
}

// SpawnMap creates a map instance node for asset id. Its layers are built
// by the next Sync once the asset is loaded.
func (s *Synchronizer) SpawnMap(id tmx.AssetID, t scene.Transform) (scene.NodeID, error) {
	node, err := s.Graph.Spawn(fmt.Sprintf("Map-%d", id), scene.None, t)
	if err != nil {
		return scene.None, err
	}
	if err := scene.Insert(s.Graph, node, MapHandle{Asset: id}); err != nil {
		return scene.None, err
	}
	s.instances[node] = &instance{asset: id, layers: LayerStorage{Storage: make(map[uint32][]scene.NodeID)}}
	s.attached = append(s.attached, id)
	return node, nil
}

// LayerStorage returns the layer nodes last built for map instance node.
func (s *Synchronizer) LayerStorage(node scene.NodeID) (LayerStorage, bool) {
	inst, ok := s.instances[node]
	if !ok {
		return LayerStorage{}, false
	}
	return inst.layers, true
}

// changed returns the assets to rebuild this pass, in first-seen order.
func (s *Synchronizer) changed() []tmx.AssetID {
	var ids []tmx.AssetID
	for _, ev := range s.Assets.DrainEvents() {
		switch ev.Kind {
		case tmx.AssetAdded, tmx.AssetModified:
			ids = append(ids, ev.ID)
		case tmx.AssetRemoved:
			ids = slices.DeleteFunc(ids, func(id tmx.AssetID) bool { return id == ev.ID })
		}
	}
	ids = append(ids, s.attached...)
	s.attached = s.attached[:0]

	seen := make(map[tmx.AssetID]bool, len(ids))
	return slices.DeleteFunc(ids, func(id tmx.AssetID) bool {
		dup := seen[id]
		seen[id] = true
		return dup
	})
}

// Sync rebuilds every map instance whose asset changed since the last pass.
// All graph mutations are queued and applied once the pass is complete.
// Property binding failures are logged and returned without stopping the
// rebuild.
func (s *Synchronizer) Sync() error {
	changed := s.changed()
	if len(changed) == 0 {
		return nil
	}

	nodes := make([]scene.NodeID, 0, len(s.instances))
	for node := range s.instances {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	cmds := scene.NewCommands(s.Graph)
	var errs []error
	for _, id := range changed {
		for _, node := range nodes {
			inst := s.instances[node]
			if inst.asset != id {
				continue
			}
			if !s.Graph.Contains(node) {
				delete(s.instances, node)
				continue
			}
			a, ok := s.Assets.Get(id)
			if !ok {
				continue
			}
			s.teardown(inst, cmds)
			if err := s.build(a, node, inst, cmds); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := cmds.Apply(s.Graph); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// teardown despawns the children of every recorded layer node and marks the
// layer node itself for Cleanup.
func (s *Synchronizer) teardown(inst *instance, cmds *scene.Commands) {
	for _, idx := range inst.layers.Layers() {
		for _, layer := range inst.layers.Storage[idx] {
			for _, child := range s.Graph.Children(layer) {
				cmds.Despawn(child)
			}
			cmds.Attach(layer, RemoveMap{})
		}
	}
	inst.layers.Storage = make(map[uint32][]scene.NodeID)
}

func (s *Synchronizer) bind(props tmx.Properties, node scene.NodeID, cmds *scene.Commands) error {
	if s.Binder == nil {
		return nil
	}
	return s.Binder.Bind(props, node, cmds)
}

func (s *Synchronizer) build(a *tmx.Asset, root scene.NodeID, inst *instance, cmds *scene.Commands) error {
	m := a.Map
	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("map %s: %w", m.Source, tmx.ErrInvalidDimensions)
	}
	errs := []error{s.bind(m.Properties, root, cmds)}

	size := MapSize{X: uint32(m.Width), Y: uint32(m.Height)}
	grid := mgl32.Vec2{float32(m.TileWidth), float32(m.TileHeight)}
	typ := mapTypeFor(m.Orientation)

	for i := range m.Layers {
		l := &m.Layers[i]
		logger := s.Logger.With().Int("layer", l.Index).Str("name", l.Name).Logger()

		switch {
		case l.Kind == tmx.ImageLayer || l.Kind == tmx.GroupLayer:
			logger.Info().Stringer("kind", l.Kind).Msg("skipping layer: only tile and object layers are supported")
			continue
		case l.Kind == tmx.TileLayer && l.Infinite:
			logger.Info().Msg("skipping layer: only finite layers are supported")
			continue
		}

		center := CenterTransform(size, grid, typ, float32(l.Index))
		placement := center.Mul(scene.FromXYZ(float32(l.OffsetX), -float32(l.OffsetY), 0))
		name := "Layer-" + l.Name

		if l.Kind == tmx.ObjectLayer {
			// One step below the layer index; the world height includes the
			// layer offset.
			placement = center.Mul(scene.FromXYZ(float32(l.OffsetX), -float32(l.OffsetY), -1))
			node := cmds.Spawn(name, root, placement)
			errs = append(errs, s.bind(l.Properties, node, cmds))
			worldHeight := float32(math.Abs(float64(placement.Translation().Y()))) * 2
			errs = append(errs, s.buildObjects(l, node, worldHeight, cmds)...)
			inst.layers.Storage[uint32(l.Index)] = []scene.NodeID{node}
			continue
		}

		var built []scene.NodeID
		for _, ts := range tilesetsOf(l) {
			tex, ok := a.Textures[ts]
			if !ok {
				logger.Warn().Int("tileset", ts).Msg("skipping tileset with no resolved texture")
				continue
			}
			node := cmds.Spawn(name, root, placement)
			errs = append(errs, s.bind(l.Properties, node, cmds))
			cmds.Attach(node, s.buildTiles(a, l, ts, tex, node, placement, cmds))
			built = append(built, node)
		}
		if len(built) == 0 {
			node := cmds.Spawn(name, root, placement)
			errs = append(errs, s.bind(l.Properties, node, cmds))
			built = append(built, node)
		}
		inst.layers.Storage[uint32(l.Index)] = built
	}

	return errors.Join(errs...)
}

// tilesetsOf lists the tilesets contributing tiles to l, ascending.
func tilesetsOf(l *tmx.Layer) []int {
	var idx []int
	for _, t := range l.Tiles {
		if t != nil && !slices.Contains(idx, t.Tileset) {
			idx = append(idx, t.Tileset)
		}
	}
	slices.Sort(idx)
	return idx
}

func (s *Synchronizer) buildObjects(l *tmx.Layer, layer scene.NodeID, worldHeight float32, cmds *scene.Commands) []error {
	var errs []error
	for _, o := range l.Objects {
		name := o.Name
		if name == "" {
			name = DefaultObjectName
		}
		pos := scene.FromXYZ(float32(o.X), -float32(o.Y)+worldHeight, 0)
		node := cmds.Spawn(name, layer, pos)
		cmds.Attach(node, MapObject{})
		errs = append(errs, s.bind(o.Properties, node, cmds))
	}
	return errs
}

// buildTiles spawns a node for every tile of tileset ts on l and returns the
// batch payload for the layer node.
func (s *Synchronizer) buildTiles(a *tmx.Asset, l *tmx.Layer, ts int, tex tmx.TextureStrategy, layer scene.NodeID, placement scene.Transform, cmds *scene.Commands) Tilemap {
	m := a.Map
	tileset := &m.Tilesets[ts]
	size := MapSize{X: uint32(m.Width), Y: uint32(m.Height)}
	storage := NewTileStorage(size)

	for x := range size.X {
		for y := range size.Y {
			row := size.Y - 1 - y
			t, ok := l.TileAt(int(x), int(row))
			if !ok || t.Tileset != ts {
				continue
			}
			pos := TilePos{X: x, Y: y}
			node := cmds.Spawn(fmt.Sprintf("tile-%dx%d", x, y), layer, scene.Identity())
			cmds.Attach(node, Tile{
				Pos:          pos,
				Tilemap:      layer,
				TextureIndex: a.TextureIndex(ts, t.ID),
				Flip:         TileFlip{X: t.FlipHorizontal, Y: t.FlipVertical, D: t.FlipDiagonal},
			})
			storage.Set(pos, node)
		}
	}

	return Tilemap{
		Layer:     l.Index,
		Tileset:   ts,
		Size:      size,
		GridSize:  mgl32.Vec2{float32(m.TileWidth), float32(m.TileHeight)},
		TileSize:  mgl32.Vec2{float32(tileset.TileWidth), float32(tileset.TileHeight)},
		Spacing:   mgl32.Vec2{float32(tileset.Spacing), float32(tileset.Spacing)},
		Type:      mapTypeFor(m.Orientation),
		Texture:   tex,
		Storage:   storage,
		Transform: placement,
	}
}

// Cleanup despawns every node marked with RemoveMap and returns how many
// nodes were removed in total.
func (s *Synchronizer) Cleanup() int {
	n := 0
	for _, node := range s.Graph.With(scene.RecordName[RemoveMap]()) {
		n += s.Graph.Despawn(node)
	}
	if n > 0 {
		s.Logger.Debug().Int("nodes", n).Msg("removed stale map nodes")
	}
	return n
}
