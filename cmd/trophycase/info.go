package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/spf13/cobra"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/showcase"
)

func infoCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "info <group> <sample>",
		Short: "Show candidate assets and the canonical transform for a sample",
		Long:  "Lists every candidate path per role, which one resolved, its native bounds, and the canonical transform the sample would get.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fsys, err := loadConfig()
			if err != nil {
				return err
			}
			g, ok := cfg.Group(args[0])
			if !ok {
				return fmt.Errorf("unknown group %q", args[0])
			}
			if method == "" {
				method = g.DefaultMethod
			}
			return runInfo(cmd.Context(), cmd.OutOrStdout(), cfg.DataRoot, fsys, g, args[1], method)
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "", "Candidate method (default: group default)")
	return cmd
}

func runInfo(ctx context.Context, w io.Writer, root string, fsys fs.FS, g *config.Group, sample, method string) error {
	loader := showcase.NewLoader(fsys)
	registry := showcase.NewRegistry()
	key := showcase.Key(g.DatasetDir, sample)

	fmt.Fprintf(w, "Group:      %s\n", g.Name)
	fmt.Fprintf(w, "Sample:     %s\n", key)
	fmt.Fprintf(w, "Up axis:    %s (ground: %v)\n", g.UpAxis, g.AlignToGround)

	var reference string
	for _, name := range g.Roles {
		role := showcase.Role(name)
		m := role.Method(g, method)
		fmt.Fprintf(w, "\n[%s] method %s\n", role, m)
		for _, p := range showcase.CandidatePaths(g, sample, m, role) {
			status := "missing"
			if st, err := fs.Stat(fsys, p); err == nil {
				status = fmt.Sprintf("%.2f KB", float64(st.Size())/1024)
			}
			fmt.Fprintf(w, "  %-40s %s\n", path.Join(root, p), status)
		}

		asset, err := loader.Load(ctx, g, sample, m, role, nil)
		if err != nil {
			fmt.Fprintf(w, "  unresolved: %v\n", err)
			continue
		}
		mesh := asset.Mesh
		box := mesh.Bounds()
		size := box.Size()
		fmt.Fprintf(w, "  resolved:   %s (%s, %d vertices, %d triangles)\n",
			asset.Path, mesh.Topology, mesh.VertexCount(), mesh.TriangleCount())
		fmt.Fprintf(w, "  bounds:     (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
			box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z)
		fmt.Fprintf(w, "  dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)

		obj := showcase.NewDisplayedObject(mesh, key, showcase.Request{Sample: sample, Method: m}, asset.Path)
		if role.ReferenceEligible() && registry.TrySetReference(key, obj, g) {
			reference = string(role)
		}
		obj.Release()
	}

	t, ok := registry.Get(key)
	if !ok {
		fmt.Fprintln(w, "\nCanonical:  none (no ground truth or baseline resolved)")
		return nil
	}
	r := t.Rotation
	fmt.Fprintf(w, "\nCanonical (from %s):\n", reference)
	fmt.Fprintf(w, "  scale:       %.6f\n", t.Scale)
	fmt.Fprintf(w, "  translation: (%.6f, %.6f, %.6f)\n", t.Translation.X, t.Translation.Y, t.Translation.Z)
	fmt.Fprintf(w, "  rotation:    (%.4f, %.4f, %.4f, %.4f)\n", r.X, r.Y, r.Z, r.W)
	return nil
}
