package renderer

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageCache loads tileset images from a file system once and keeps them as
// ebiten images.
type ImageCache struct {
	fsys   fs.FS
	Logger zerolog.Logger

	mu     sync.Mutex
	images map[string]*ebiten.Image
}

func NewImageCache(fsys fs.FS) *ImageCache {
	return &ImageCache{fsys: fsys, Logger: log.Logger, images: make(map[string]*ebiten.Image)}
}

// DecodeImage reads and decodes a png, bmp or webp image.
func DecodeImage(fsys fs.FS, name string) (image.Image, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", name, err)
	}
	return img, nil
}

func (c *ImageCache) Image(name string) (*ebiten.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[name]; ok {
		return img, nil
	}
	src, err := DecodeImage(c.fsys, name)
	if err != nil {
		return nil, err
	}
	img := ebiten.NewImageFromImage(src)
	c.images[name] = img
	c.Logger.Debug().Str("image", name).Int("width", src.Bounds().Dx()).Int("height", src.Bounds().Dy()).Msg("loaded image")
	return img, nil
}

// Forget drops every cached image, so a reloaded map picks up new files.
func (c *ImageCache) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, img := range c.images {
		img.Deallocate()
	}
	clear(c.images)
}
