// Package config loads trophycase settings from TOML.
//
// A config has global settings and one [[group]] table per viewport group:
//
//	data_root = "static/data"
//
//	[[group]]
//	name = "building"
//	dataset_dir = "building"
//	default_method = "paco"
//	up_axis = "z"
//	align_to_ground = true
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Role names accepted in a group's roles list.
const (
	RoleGT              = "gt"
	RoleInput           = "input"
	RoleBaseline        = "baseline"
	RoleCandidate       = "candidate"
	RoleBaselinePoints  = "baseline-points"
	RoleCandidatePoints = "candidate-points"
)

// KnownRoles lists every valid role name in display order.
var KnownRoles = []string{RoleGT, RoleInput, RoleBaseline, RoleCandidate, RoleBaselinePoints, RoleCandidatePoints}

// Camera modes.
const (
	CameraShared      = "shared"
	CameraIndependent = "independent"
)

// Config is the top-level configuration.
type Config struct {
	DataRoot   string  `toml:"data_root"`
	FPS        int     `toml:"fps"`
	PixelRatio float64 `toml:"pixel_ratio"`
	Groups     []Group `toml:"group"`
}

// Group configures one viewport group.
type Group struct {
	Name           string   `toml:"name"`
	DatasetDir     string   `toml:"dataset_dir"`
	DefaultMethod  string   `toml:"default_method"`
	BaselineMethod string   `toml:"baseline_method"`
	Methods        []string `toml:"methods,omitempty"`
	Samples        []string `toml:"samples,omitempty"`
	DefaultSample  string   `toml:"default_sample,omitempty"`
	Roles          []string `toml:"roles"`
	MeshFormats    []string `toml:"mesh_formats"`
	PointFormats   []string `toml:"point_formats"`

	UpAxis        string `toml:"up_axis"` // y, z or auto
	AlignToGround bool   `toml:"align_to_ground"`
	DoubleSided   bool   `toml:"double_sided"`

	AutoRotate      *bool   `toml:"auto_rotate,omitempty"`
	AutoRotateAxis  string  `toml:"auto_rotate_axis"` // local y or z
	AutoRotateSpeed float64 `toml:"auto_rotate_speed"`

	AutoFrame           *bool      `toml:"auto_frame,omitempty"`
	AutoFrameViewDir    []float64  `toml:"auto_frame_view_dir,omitempty"`
	AutoFrameHeight     float64    `toml:"auto_frame_height"`
	AutoFrameMultiplier float64    `toml:"auto_frame_multiplier"`
	CameraFOV           float64    `toml:"camera_fov"` // degrees
	CameraMode          string     `toml:"camera_mode"`
	CameraPosition      [3]float64 `toml:"camera_position"`
}

// AutoRotateEnabled reports whether auto-rotation starts enabled (default true).
func (g *Group) AutoRotateEnabled() bool {
	return g.AutoRotate == nil || *g.AutoRotate
}

// AutoFrameEnabled reports whether the camera is framed around each new
// reference (default true).
func (g *Group) AutoFrameEnabled() bool {
	return g.AutoFrame == nil || *g.AutoFrame
}

// HasRole reports whether the group creates a viewport for role.
func (g *Group) HasRole(role string) bool {
	return slices.Contains(g.Roles, role)
}

func ptr[T any](v T) *T {
	return &v
}

// Defaults returns the built-in configuration with the abc and building
// groups.
func Defaults() *Config {
	abc := baseGroup("abc")
	abc.DefaultMethod = "symm"
	abc.AutoFrame = ptr(false)

	building := baseGroup("building")
	building.DefaultMethod = "paco"
	building.UpAxis = "z"
	building.AlignToGround = true
	building.DoubleSided = true
	building.AutoRotateAxis = "z"
	building.CameraFOV = 35
	building.AutoFrame = ptr(true)
	building.AutoFrameViewDir = []float64{0, 0.5, 0.5}
	building.AutoFrameMultiplier = 1.1
	building.Roles = []string{RoleGT, RoleInput, RoleBaseline, RoleCandidate}

	return &Config{
		DataRoot:   "static/data",
		FPS:        30,
		PixelRatio: 1,
		Groups:     []Group{abc, building},
	}
}

func baseGroup(name string) Group {
	return Group{
		Name:                name,
		DatasetDir:          name,
		BaselineMethod:      "unico",
		Roles:               slices.Clone(KnownRoles),
		MeshFormats:         []string{"obj"},
		PointFormats:        []string{"ply"},
		UpAxis:              "y",
		AutoRotateAxis:      "y",
		AutoRotateSpeed:     0.01,
		AutoFrameHeight:     0.35,
		AutoFrameMultiplier: 1.15,
		CameraFOV:           45,
		CameraMode:          CameraShared,
		CameraPosition:      [3]float64{0.5, 0.5, 1.8},
	}
}

// fillDefaults sets unset fields of a user-provided group.
func (g *Group) fillDefaults() {
	base := baseGroup(g.Name)
	if g.DatasetDir == "" {
		g.DatasetDir = base.DatasetDir
	}
	if g.BaselineMethod == "" {
		g.BaselineMethod = base.BaselineMethod
	}
	if len(g.Roles) == 0 {
		g.Roles = base.Roles
	}
	if len(g.MeshFormats) == 0 {
		g.MeshFormats = base.MeshFormats
	}
	if len(g.PointFormats) == 0 {
		g.PointFormats = base.PointFormats
	}
	if g.UpAxis == "" {
		g.UpAxis = base.UpAxis
	}
	if g.AutoRotateAxis == "" {
		g.AutoRotateAxis = base.AutoRotateAxis
	}
	if g.AutoRotateSpeed == 0 {
		g.AutoRotateSpeed = base.AutoRotateSpeed
	}
	if g.AutoFrameHeight == 0 {
		g.AutoFrameHeight = base.AutoFrameHeight
	}
	if g.AutoFrameMultiplier == 0 {
		g.AutoFrameMultiplier = base.AutoFrameMultiplier
	}
	if g.CameraFOV == 0 {
		g.CameraFOV = base.CameraFOV
	}
	if g.CameraMode == "" {
		g.CameraMode = base.CameraMode
	}
	if g.CameraPosition == [3]float64{} {
		g.CameraPosition = base.CameraPosition
	}
}

// Validate checks enumerations and required fields.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Groups) == 0 {
		errs = append(errs, errors.New("no groups configured"))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.PixelRatio <= 0 {
		errs = append(errs, fmt.Errorf("pixel_ratio must be positive, got %v", c.PixelRatio))
	}
	seen := make(map[string]bool)
	for i := range c.Groups {
		g := &c.Groups[i]
		if g.Name == "" {
			errs = append(errs, fmt.Errorf("group %d: name is required", i))
			continue
		}
		if seen[g.Name] {
			errs = append(errs, fmt.Errorf("group %q: duplicate name", g.Name))
		}
		seen[g.Name] = true
		if err := g.validate(); err != nil {
			errs = append(errs, fmt.Errorf("group %q: %w", g.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (g *Group) validate() error {
	var errs []error
	switch g.UpAxis {
	case "y", "z", "auto":
	default:
		errs = append(errs, fmt.Errorf("up_axis must be y, z or auto, got %q", g.UpAxis))
	}
	switch g.AutoRotateAxis {
	case "y", "z":
	default:
		errs = append(errs, fmt.Errorf("auto_rotate_axis must be y or z, got %q", g.AutoRotateAxis))
	}
	switch g.CameraMode {
	case CameraShared, CameraIndependent:
	default:
		errs = append(errs, fmt.Errorf("camera_mode must be %s or %s, got %q", CameraShared, CameraIndependent, g.CameraMode))
	}
	if g.CameraFOV <= 0 || g.CameraFOV >= 180 {
		errs = append(errs, fmt.Errorf("camera_fov must be in (0, 180), got %v", g.CameraFOV))
	}
	if g.DefaultMethod == "" {
		errs = append(errs, errors.New("default_method is required"))
	}
	if len(g.AutoFrameViewDir) != 0 && len(g.AutoFrameViewDir) != 3 {
		errs = append(errs, fmt.Errorf("auto_frame_view_dir needs 3 components, got %d", len(g.AutoFrameViewDir)))
	}
	for _, r := range g.Roles {
		if !slices.Contains(KnownRoles, r) {
			errs = append(errs, fmt.Errorf("unknown role %q", r))
		}
	}
	return errors.Join(errs...)
}

// Parse reads TOML from r. Unknown keys are an error. Missing global
// settings and per-group fields take their defaults; if the document has no
// groups the built-in groups are used.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	builtin := cfg.Groups
	cfg.Groups = nil

	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, unknownKeys(serr)
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if len(cfg.Groups) == 0 {
		cfg.Groups = builtin
	}
	for i := range cfg.Groups {
		cfg.Groups[i].fillDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// unknownKeys names every key the document has and Config lacks.
func unknownKeys(serr *toml.StrictMissingError) error {
	errs := make([]error, 0, len(serr.Errors))
	for _, e := range serr.Errors {
		row, _ := e.Position()
		errs = append(errs, fmt.Errorf("config line %d: unknown key %q", row, strings.Join(e.Key(), ".")))
	}
	return errors.Join(errs...)
}

// Load reads a TOML config file. An empty path returns Defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Marshal renders the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Group returns the group named name.
func (c *Config) Group(name string) (*Group, bool) {
	for i := range c.Groups {
		if c.Groups[i].Name == name {
			return &c.Groups[i], true
		}
	}
	return nil, false
}
