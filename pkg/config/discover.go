package config

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// splitAsset splits "<sample>_<method>.<ext>" at the last underscore.
func splitAsset(name string) (sample, method, ext string, ok bool) {
	ext = path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	i := strings.LastIndexByte(stem, '_')
	if i <= 0 || i == len(stem)-1 || ext == "" {
		return "", "", "", false
	}
	return stem[:i], stem[i+1:], strings.ToLower(ext[1:]), true
}

func (g *Group) knownExt(ext string) bool {
	return slices.Contains(g.MeshFormats, ext) || slices.Contains(g.PointFormats, ext)
}

// scan lists (sample, method) pairs present under the group's dataset dir.
func (g *Group) scan(fsys fs.FS) (map[string][]string, error) {
	entries, err := fs.ReadDir(fsys, g.DatasetDir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", g.DatasetDir, err)
	}
	methods := make(map[string][]string) // sample -> methods
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		sample, method, ext, ok := splitAsset(e.Name())
		if !ok || !g.knownExt(ext) {
			continue
		}
		if !slices.Contains(methods[sample], method) {
			methods[sample] = append(methods[sample], method)
		}
	}
	return methods, nil
}

// DiscoverSamples returns the sorted ids of every sample with a
// ground-truth asset ("<id>_gt.<ext>").
func (g *Group) DiscoverSamples(fsys fs.FS) ([]string, error) {
	bySample, err := g.scan(fsys)
	if err != nil {
		return nil, err
	}
	var samples []string
	for sample, methods := range bySample {
		if slices.Contains(methods, "gt") {
			samples = append(samples, sample)
		}
	}
	slices.Sort(samples)
	return samples, nil
}

// DiscoverMethods returns the sorted candidate method names found on disk,
// excluding ground truth, input and the baseline.
func (g *Group) DiscoverMethods(fsys fs.FS) ([]string, error) {
	bySample, err := g.scan(fsys)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, methods := range bySample {
		for _, m := range methods {
			if m == "gt" || m == "input" || m == g.BaselineMethod || slices.Contains(out, m) {
				continue
			}
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Resolve fills empty sample and method lists from fsys and makes sure the
// default method is listed first when absent.
func (g *Group) Resolve(fsys fs.FS) error {
	if len(g.Samples) == 0 {
		samples, err := g.DiscoverSamples(fsys)
		if err != nil {
			return err
		}
		g.Samples = samples
	}
	if len(g.Methods) == 0 {
		methods, err := g.DiscoverMethods(fsys)
		if err != nil {
			return err
		}
		g.Methods = methods
	}
	if !slices.Contains(g.Methods, g.DefaultMethod) {
		g.Methods = append([]string{g.DefaultMethod}, g.Methods...)
	}
	if g.DefaultSample == "" && len(g.Samples) > 0 {
		g.DefaultSample = g.Samples[0]
	}
	return nil
}
