package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"fortio.org/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/render"
	"github.com/taigrr/trophycase/pkg/showcase"
)

// Tint blended over panes whose load failed.
var failedTint = render.RGB(160, 40, 40)

type snapshotOptions struct {
	out     string
	sample  string
	group   string
	width   int
	height  int
	timeout time.Duration
}

func snapshotCmd() *cobra.Command {
	var o snapshotOptions
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render every sample of each group to PNG grids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, fsys, err := loadConfig()
			if err != nil {
				return err
			}
			return runSnapshot(cmd.Context(), cfg, fsys, o)
		},
	}
	cmd.Flags().StringVarP(&o.out, "out", "o", "snapshots", "Output directory")
	cmd.Flags().StringVarP(&o.sample, "sample", "s", "", "Only this sample")
	cmd.Flags().StringVarP(&o.group, "group", "g", "", "Only this group")
	cmd.Flags().IntVar(&o.width, "width", 320, "Pane width in pixels")
	cmd.Flags().IntVar(&o.height, "height", 240, "Pane height in pixels")
	cmd.Flags().DurationVar(&o.timeout, "timeout", time.Minute, "Load timeout per sample")
	return cmd
}

func runSnapshot(ctx context.Context, cfg *config.Config, fsys fs.FS, o snapshotOptions) error {
	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i := range cfg.Groups {
		g := cfg.Groups[i]
		if o.group != "" && g.Name != o.group {
			continue
		}
		samples := g.Samples
		if o.sample != "" {
			if !slices.Contains(samples, o.sample) {
				log.Warnf("group %s: sample %s not listed, trying anyway", g.Name, o.sample)
			}
			samples = []string{o.sample}
		}
		eg.Go(func() error {
			return snapshotGroup(ctx, cfg, fsys, &g, samples, o)
		})
	}
	return eg.Wait()
}

// snapshotGroup renders samples one after another through a single session
// so the group's viewports settle exactly as they would interactively.
func snapshotGroup(ctx context.Context, cfg *config.Config, fsys fs.FS, g *config.Group, samples []string, o snapshotOptions) error {
	g.AutoRotate = new(bool)

	s := showcase.NewSession(cfg, fsys)
	defer s.Teardown()

	ratio := cfg.PixelRatio
	panes := make(map[showcase.Role]*render.Pane)
	indicators := make(map[showcase.Role]*snapshotIndicator)
	slots := make(map[showcase.Role]showcase.Slot)
	for _, name := range g.Roles {
		role := showcase.Role(name)
		style := render.DefaultStyle()
		style.DoubleSided = g.DoubleSided
		style.PointSize = 2
		panes[role] = render.NewPane(o.width, o.height, style)
		indicators[role] = &snapshotIndicator{}
		slots[role] = showcase.Slot{
			Surface:   panes[role],
			Container: fixedBox{float64(o.width) / ratio, float64(o.height) / ratio},
			Indicator: indicators[role],
		}
	}
	group := s.AddGroup(g, slots)
	if group == nil {
		return fmt.Errorf("group %s: no ground-truth role configured", g.Name)
	}

	for _, sample := range samples {
		group.OnSampleChanged(sample)
		sctx, cancel := context.WithTimeout(ctx, o.timeout)
		err := s.Settle(sctx)
		cancel()
		if err != nil {
			return fmt.Errorf("group %s sample %s: %w", g.Name, sample, err)
		}
		s.Tick()

		views := group.Viewports()
		grid := render.NewFramebuffer(o.width*len(views), o.height)
		for i, v := range views {
			fb := panes[v.Role].Framebuffer()
			if indicators[v.Role].failed != nil {
				tint(fb, failedTint)
			}
			fb.Blit(grid, i*o.width, 0)
		}
		path := filepath.Join(o.out, fmt.Sprintf("%s_%s.png", g.Name, sample))
		if err := grid.SavePNG(path); err != nil {
			return err
		}
		log.Infof("wrote %s", path)
	}
	return nil
}

func tint(fb *render.Framebuffer, c render.Color) {
	for i, p := range fb.Pixels {
		fb.Pixels[i] = p.Lerp(c, 0.5)
	}
}

// fixedBox is a container of constant logical size.
type fixedBox struct{ w, h float64 }

func (b fixedBox) Size() (float64, float64) { return b.w, b.h }

type snapshotIndicator struct {
	failed error
}

func (i *snapshotIndicator) SetLoading(bool) {}

func (i *snapshotIndicator) SetProgress(int64, int64) {}

func (i *snapshotIndicator) SetFailed(err error) { i.failed = err }
