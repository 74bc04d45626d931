package tmx

import (
	"context"

	"github.com/rs/zerolog"
)

// Asset is a decoded map together with the texture strategy of each of its
// tilesets.
type Asset struct {
	Map *Map
	*TextureLayout
}

// NewAsset resolves the texture layout of m.
func NewAsset(m *Map) *Asset {
	return &Asset{Map: m, TextureLayout: ResolveTextures(m)}
}

// Loader turns file bytes into an Asset. Loaders are selected by file
// extension, without the dot.
type Loader interface {
	Extensions() []string
	Load(ctx context.Context, data []byte, name string, rr ResourceReader) (*Asset, error)
}

// TMXLoader loads .tmx files.
type TMXLoader struct {
	Logger zerolog.Logger
}

func (TMXLoader) Extensions() []string { return []string{"tmx"} }

func (l TMXLoader) Load(ctx context.Context, data []byte, name string, rr ResourceReader) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}

	var opts []DecodeOption
	if rr != nil {
		opts = append(opts, WithResourceReader(rr))
	}
	m, err := Decode(data, name, opts...)
	if err != nil {
		return nil, err
	}

	a := NewAsset(m)
	for i, tex := range a.Textures {
		for slot, img := range tex.Images {
			l.Logger.Debug().
				Str("image", img).
				Int("tileset", i).
				Int("slot", slot).
				Stringer("texture", tex.Kind).
				Msg("tileset image")
		}
	}
	l.Logger.Info().Str("path", name).Msg("loaded map")
	return a, nil
}
