package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/talvor/tmxblueprints/blueprint"
	"github.com/talvor/tmxblueprints/scene"
)

func propsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "props [map-path]",
		Short: "List the records bound from map, layer and object properties",
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
			writeRecords(cmd.OutOrStdout(), app.Graph, app.Registry, root)
			return nil
		},
	}
}

// writeRecords prints every registered record below root, one per line.
func writeRecords(w io.Writer, g *scene.Graph, r *blueprint.Registry, root scene.NodeID) {
	g.Walk(root, func(n *scene.Node, _ int) bool {
		for _, name := range g.Records(n.ID) {
			t, ok := r.LookupPath(name)
			if !ok {
				continue
			}
			v, _ := g.Record(n.ID, name)
			fmt.Fprintf(w, "%s %s: %s = %+v\n", n.ID, n.Name, t.Name, v)
		}
		return true
	})
}
