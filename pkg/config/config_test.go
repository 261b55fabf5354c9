package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Groups, 2)

	abc, ok := cfg.Group("abc")
	require.True(t, ok)
	assert.Equal(t, "symm", abc.DefaultMethod)
	assert.Equal(t, "y", abc.UpAxis)
	assert.False(t, abc.AlignToGround)
	assert.False(t, abc.AutoFrameEnabled())
	assert.True(t, abc.AutoRotateEnabled())
	assert.True(t, abc.HasRole(RoleCandidatePoints))
	assert.Equal(t, 45.0, abc.CameraFOV)

	building, ok := cfg.Group("building")
	require.True(t, ok)
	assert.Equal(t, "paco", building.DefaultMethod)
	assert.Equal(t, "z", building.UpAxis)
	assert.True(t, building.AlignToGround)
	assert.True(t, building.DoubleSided)
	assert.Equal(t, "z", building.AutoRotateAxis)
	assert.Equal(t, 35.0, building.CameraFOV)
	assert.True(t, building.AutoFrameEnabled())
	assert.Equal(t, []float64{0, 0.5, 0.5}, building.AutoFrameViewDir)
	assert.Equal(t, 0.35, building.AutoFrameHeight)
	assert.Equal(t, 1.1, building.AutoFrameMultiplier)
	assert.False(t, building.HasRole(RoleBaselinePoints))
}

func TestParseFillsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
data_root = "/srv/data"

[[group]]
name = "chairs"
default_method = "ours"
up_axis = "auto"
camera_mode = "independent"
auto_rotate = false
`))
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataRoot)
	assert.Equal(t, 30, cfg.FPS)
	require.Len(t, cfg.Groups, 1)

	g := cfg.Groups[0]
	assert.Equal(t, "chairs", g.DatasetDir)
	assert.Equal(t, "unico", g.BaselineMethod)
	assert.Equal(t, []string{"obj"}, g.MeshFormats)
	assert.Equal(t, []string{"ply"}, g.PointFormats)
	assert.Equal(t, "auto", g.UpAxis)
	assert.Equal(t, CameraIndependent, g.CameraMode)
	assert.False(t, g.AutoRotateEnabled())
	assert.True(t, g.AutoFrameEnabled())
	assert.Equal(t, 0.01, g.AutoRotateSpeed)
	assert.Equal(t, [3]float64{0.5, 0.5, 1.8}, g.CameraPosition)
}

func TestParseNoGroupsUsesBuiltins(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`fps = 24`))
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.FPS)
	assert.Len(t, cfg.Groups, 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "bogus = 1", "bogus"},
		{"bad up axis", "[[group]]\nname = \"a\"\ndefault_method = \"m\"\nup_axis = \"x\"", "up_axis"},
		{"bad role", "[[group]]\nname = \"a\"\ndefault_method = \"m\"\nroles = [\"gt\", \"nope\"]", "unknown role"},
		{"bad mode", "[[group]]\nname = \"a\"\ndefault_method = \"m\"\ncamera_mode = \"split\"", "camera_mode"},
		{"missing method", "[[group]]\nname = \"a\"", "default_method"},
		{"duplicate", "[[group]]\nname = \"a\"\ndefault_method = \"m\"\n[[group]]\nname = \"a\"\ndefault_method = \"m\"", "duplicate"},
		{"short view dir", "[[group]]\nname = \"a\"\ndefault_method = \"m\"\nauto_frame_view_dir = [1, 2]", "auto_frame_view_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseNamesEveryUnknownKey(t *testing.T) {
	doc := "fps = 30\nbogus = 1\n[[group]]\nname = \"a\"\ndefault_method = \"m\"\nup_axs = \"z\"\n"
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line 2: unknown key "bogus"`)
	assert.Contains(t, err.Error(), `line 6: unknown key "group.up_axs"`)
	assert.NotContains(t, err.Error(), "strict mode")
}

func TestLoadFileAndRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "trophycase.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	fsys := fstest.MapFS{
		"abc/00012_gt.obj":      {},
		"abc/00012_input.ply":   {},
		"abc/00012_unico.obj":   {},
		"abc/00012_symm.obj":    {},
		"abc/00012_paco.ply":    {},
		"abc/chair_02_gt.obj":   {},
		"abc/chair_02_symm.obj": {},
		"abc/notes.txt":         {},
		"abc/orphan_symm.obj":   {},
		"abc/bad_gt.fbx":        {},
	}
	g := Defaults().Groups[0]

	samples, err := g.DiscoverSamples(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"00012", "chair_02"}, samples)

	methods, err := g.DiscoverMethods(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"paco", "symm"}, methods)

	require.NoError(t, g.Resolve(fsys))
	assert.Equal(t, "00012", g.DefaultSample)
	assert.Equal(t, []string{"paco", "symm"}, g.Methods)

	_, err = g.DiscoverSamples(fstest.MapFS{})
	assert.Error(t, err)
}

func TestSplitAsset(t *testing.T) {
	tests := []struct {
		in                  string
		sample, method, ext string
		ok                  bool
	}{
		{"00012_gt.obj", "00012", "gt", "obj", true},
		{"a_b_c.PLY", "a_b", "c", "ply", true},
		{"nounderscore.obj", "", "", "", false},
		{"_gt.obj", "", "", "", false},
		{"x_.obj", "", "", "", false},
		{"x_gt", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, m, e, ok := splitAsset(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.sample, s)
			assert.Equal(t, tt.method, m)
			assert.Equal(t, tt.ext, e)
		})
	}
}
