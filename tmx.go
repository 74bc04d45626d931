package tmx

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
)

var ErrEmbeddedImage = errors.New("tmx: embedded image data is not supported")

// LoadError reports a map that could not be decoded. Err carries the
// underlying diagnostic.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load TMX map %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ResourceReader returns the bytes of files a map refers to. It is only
// consulted for external tilesets; images are never read while decoding.
type ResourceReader interface {
	ReadResource(name string) ([]byte, error)
}

// ReaderFunc adapts a function to a ResourceReader.
type ReaderFunc func(name string) ([]byte, error)

func (f ReaderFunc) ReadResource(name string) ([]byte, error) { return f(name) }

// FSReader reads resources from an fs.FS using slash-separated paths.
type FSReader struct {
	FS fs.FS
}

func (r FSReader) ReadResource(name string) ([]byte, error) {
	return fs.ReadFile(r.FS, path.Clean(name))
}

type DecodeOption func(*decoder)

// WithResourceReader sets the reader used for external tilesets.
func WithResourceReader(rr ResourceReader) DecodeOption {
	return func(d *decoder) { d.resources = rr }
}

type decoder struct {
	source    string
	baseDir   string
	resources ResourceReader
}

// Decode parses a TMX document. source is the slash-separated path the bytes
// were read from; every image and external tileset reference is resolved
// relative to its directory. Decode panics if source is empty since no
// reference could then be resolved.
func Decode(data []byte, source string, opts ...DecodeOption) (*Map, error) {
	if source == "" {
		panic("tmx: Decode called without a source path")
	}

	d := &decoder{source: source, baseDir: path.Dir(source)}
	for _, opt := range opts {
		opt(d)
	}

	m, err := d.decode(data)
	if err != nil {
		return nil, &LoadError{Path: source, Err: err}
	}
	return m, nil
}

// DecodeReader is Decode for an io.Reader.
func DecodeReader(source string, r io.Reader, opts ...DecodeOption) (*Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Path: source, Err: err}
	}
	return Decode(data, source, opts...)
}

// LoadFile function loads tiled map in TMX format from file. External
// tilesets are read from disk.
func LoadFile(fileName string) (*Map, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, &LoadError{Path: fileName, Err: err}
	}
	defer f.Close()

	return DecodeReader(filepath.ToSlash(fileName), f, WithResourceReader(ReaderFunc(func(name string) ([]byte, error) {
		return os.ReadFile(filepath.FromSlash(name))
	})))
}

func (d *decoder) decode(data []byte) (*Map, error) {
	var raw mapXML
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, err
	}

	orientation, err := parseOrientation(raw.Orientation)
	if err != nil {
		return nil, err
	}

	m := &Map{
		Source:      d.source,
		Version:     raw.Version,
		Class:       raw.Class,
		Orientation: orientation,
		Width:       raw.Width,
		Height:      raw.Height,
		TileWidth:   raw.TileWidth,
		TileHeight:  raw.TileHeight,
		Infinite:    raw.Infinite,
	}
	if m.Width < 0 || m.Height < 0 || m.TileWidth < 0 || m.TileHeight < 0 {
		return nil, fmt.Errorf("%w: map %dx%d, tile %dx%d", ErrInvalidDimensions, m.Width, m.Height, m.TileWidth, m.TileHeight)
	}

	if m.Properties, err = decodeProperties(raw.Properties, d.baseDir); err != nil {
		return nil, err
	}

	m.Tilesets = make([]Tileset, 0, len(raw.Tilesets))
	for _, rt := range raw.Tilesets {
		ts, err := d.decodeTileset(rt)
		if err != nil {
			return nil, err
		}
		m.Tilesets = append(m.Tilesets, ts)
	}

	for _, rl := range raw.Layers {
		kind, ok := layerKinds[rl.XMLName.Local]
		if !ok {
			continue
		}
		l, err := d.decodeLayer(m, rl, kind)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", rl.Name, err)
		}
		l.Index = len(m.Layers)
		m.Layers = append(m.Layers, l)
	}

	return m, nil
}

var layerKinds = map[string]LayerKind{
	"layer":       TileLayer,
	"objectgroup": ObjectLayer,
	"imagelayer":  ImageLayer,
	"group":       GroupLayer,
}

func (d *decoder) decodeTileset(rt tilesetXML) (Tileset, error) {
	baseDir := d.baseDir
	source := ""
	if rt.Source != "" {
		if d.resources == nil {
			return Tileset{}, fmt.Errorf("%w: %s", ErrExternalTileset, rt.Source)
		}
		source = path.Join(d.baseDir, rt.Source)
		data, err := d.resources.ReadResource(source)
		if err != nil {
			return Tileset{}, fmt.Errorf("tileset %s: %w", source, err)
		}
		firstGID := rt.FirstGID
		rt = tilesetXML{}
		if err := xml.Unmarshal(data, &rt); err != nil {
			return Tileset{}, fmt.Errorf("tileset %s: %w", source, err)
		}
		rt.FirstGID = firstGID
		baseDir = path.Dir(source)
	}

	ts := Tileset{
		FirstGID:   rt.FirstGID,
		Name:       rt.Name,
		Source:     source,
		TileWidth:  rt.TileWidth,
		TileHeight: rt.TileHeight,
		Spacing:    rt.Spacing,
		Margin:     rt.Margin,
		TileCount:  rt.TileCount,
		Columns:    rt.Columns,
	}

	var err error
	if ts.Image, err = decodeImage(rt.Image, baseDir); err != nil {
		return Tileset{}, err
	}
	if ts.Properties, err = decodeProperties(rt.Properties, baseDir); err != nil {
		return Tileset{}, err
	}

	ts.Tiles = make([]Tile, 0, len(rt.Tiles))
	for _, rtile := range rt.Tiles {
		t := Tile{ID: rtile.ID, Type: rtile.Type}
		if t.Type == "" {
			t.Type = rtile.Class
		}
		if t.Image, err = decodeImage(rtile.Image, baseDir); err != nil {
			return Tileset{}, err
		}
		if t.Properties, err = decodeProperties(rtile.Properties, baseDir); err != nil {
			return Tileset{}, err
		}
		ts.Tiles = append(ts.Tiles, t)
	}
	slices.SortStableFunc(ts.Tiles, func(a, b Tile) int { return cmp.Compare(a.ID, b.ID) })

	return ts, nil
}

func decodeImage(ri *imageXML, baseDir string) (*Image, error) {
	if ri == nil {
		return nil, nil
	}
	if ri.Source == "" {
		return nil, ErrEmbeddedImage
	}
	return &Image{
		Source: path.Join(baseDir, ri.Source),
		Width:  ri.Width,
		Height: ri.Height,
	}, nil
}

func (d *decoder) decodeLayer(m *Map, rl layerXML, kind LayerKind) (Layer, error) {
	l := Layer{
		ID:      rl.ID,
		Name:    rl.Name,
		Kind:    kind,
		OffsetX: rl.OffsetX,
		OffsetY: rl.OffsetY,
		Opacity: 1,
		Visible: rl.Visible != "0",
		Width:   rl.Width,
		Height:  rl.Height,
	}
	if rl.Opacity != "" {
		o, err := strconv.ParseFloat(rl.Opacity, 64)
		if err != nil {
			return Layer{}, fmt.Errorf("opacity: %w", err)
		}
		l.Opacity = o
	}
	if l.Width < 0 || l.Height < 0 {
		return Layer{}, fmt.Errorf("%w: layer %dx%d", ErrInvalidDimensions, l.Width, l.Height)
	}

	var err error
	if l.Properties, err = decodeProperties(rl.Properties, d.baseDir); err != nil {
		return Layer{}, err
	}

	switch kind {
	case TileLayer:
		if l.Width == 0 && l.Height == 0 {
			l.Width, l.Height = m.Width, m.Height
		}
		if m.Infinite || (rl.Data != nil && len(rl.Data.Chunks) > 0) {
			l.Infinite = true
			return l, nil
		}
		// Tiles are indexed against the map grid.
		if l.Width != m.Width || l.Height != m.Height {
			return Layer{}, fmt.Errorf("%w: layer %dx%d in a %dx%d map", ErrInvalidDimensions, l.Width, l.Height, m.Width, m.Height)
		}
		if rl.Data == nil {
			l.Tiles = make([]*LayerTile, l.Width*l.Height)
			return l, nil
		}
		gids, err := rl.Data.decodeGIDs(l.Width * l.Height)
		if err != nil {
			return Layer{}, err
		}
		if l.Tiles, err = m.decodeCells(gids); err != nil {
			return Layer{}, err
		}
	case ObjectLayer:
		l.Objects = make([]Object, 0, len(rl.Objects))
		for _, ro := range rl.Objects {
			o := Object{
				ID:      ro.ID,
				Name:    ro.Name,
				Type:    ro.Type,
				X:       ro.X,
				Y:       ro.Y,
				Width:   ro.Width,
				Height:  ro.Height,
				Visible: ro.Visible != "0",
			}
			if o.Type == "" {
				o.Type = ro.Class
			}
			if o.Properties, err = decodeProperties(ro.Properties, d.baseDir); err != nil {
				return Layer{}, fmt.Errorf("object %d: %w", ro.ID, err)
			}
			l.Objects = append(l.Objects, o)
		}
	}

	return l, nil
}

func (m *Map) decodeCells(gids []GID) ([]*LayerTile, error) {
	cells := make([]*LayerTile, len(gids))
	for i, gid := range gids {
		if gid&GIDMask == 0 {
			continue
		}
		t, ok := m.DecodeTileGID(gid)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrInvalidGID, gid&GIDMask)
		}
		cells[i] = &t
	}
	return cells, nil
}
