package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talvor/tmxblueprints/scene"
	"github.com/talvor/tmxblueprints/tilemap"
)

func dumpCmd(opts *options) *cobra.Command {
	var tiles bool

	cmd := &cobra.Command{
		Use:   "dump [map-path]",
		Short: "Print the scene tree built from a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			app, root, err := loadScene(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeTree(out, app.Graph, root, tiles)
			if cfg.DebugObjects {
				writeObjects(out, app.Graph, root)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&tiles, "tiles", false, "include tile nodes")
	return cmd
}

func writeTree(w io.Writer, g *scene.Graph, root scene.NodeID, tiles bool) {
	g.Walk(root, func(n *scene.Node, depth int) bool {
		if !tiles && scene.Has[tilemap.Tile](g, n.ID) {
			return false
		}
		p := n.Transform.Translation()
		fmt.Fprintf(w, "%s%s %s (%g, %g, %g)", strings.Repeat("  ", depth), n.ID, n.Name, p.X(), p.Y(), p.Z())
		if tm, ok := scene.Get[tilemap.Tilemap](g, n.ID); ok {
			fmt.Fprintf(w, " tileset=%d tiles=%d %s", tm.Tileset, tm.Storage.Len(), tm.Type)
		}
		fmt.Fprintln(w)
		return true
	})
}

// writeObjects lists the world position of every object node.
func writeObjects(w io.Writer, g *scene.Graph, root scene.NodeID) {
	g.Walk(root, func(n *scene.Node, _ int) bool {
		if scene.Has[tilemap.MapObject](g, n.ID) {
			p := g.GlobalTransform(n.ID).Translation()
			fmt.Fprintf(w, "object %s %q at (%g, %g)\n", n.ID, n.Name, p.X(), p.Y())
		}
		return true
	})
}
