package main

import (
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"github.com/talvor/tmxblueprints/internal/config"
	"github.com/talvor/tmxblueprints/renderer"
	"github.com/talvor/tmxblueprints/tilemap"
)

type game struct {
	app      *tilemap.App
	renderer *renderer.Renderer
	cfg      *config.Config
}

func (g *game) Update() error {
	// Sync errors are logged by the app; they never stop the window.
	g.app.Tick()

	const pan = 4
	cam := &g.renderer.Camera
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		cam[0] -= pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		cam[0] += pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		cam[1] += pan
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		cam[1] -= pan
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}

func viewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view [map-path]",
		Short: "Open a window drawing the scene built from a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			app, _, err := loadScene(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			r := renderer.NewRenderer(app.Graph, renderer.NewImageCache(os.DirFS(cfg.AssetRoot)))
			r.Scale = cfg.Window.Scale

			ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
			ebiten.SetWindowTitle("tmxscene - " + args[0])
			return ebiten.RunGame(&game{app: app, renderer: r, cfg: cfg})
		},
	}
}
