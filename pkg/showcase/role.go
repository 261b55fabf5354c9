package showcase

import (
	"fmt"
	"path"

	"github.com/taigrr/trophycase/pkg/config"
)

// Role tags what a Viewport displays.
type Role string

const (
	RoleGT              Role = config.RoleGT
	RoleInput           Role = config.RoleInput
	RoleBaseline        Role = config.RoleBaseline
	RoleCandidate       Role = config.RoleCandidate
	RoleBaselinePoints  Role = config.RoleBaselinePoints
	RoleCandidatePoints Role = config.RoleCandidatePoints
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range config.KnownRoles {
		if r == s {
			return Role(s), nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ReferenceEligible reports whether an object in this role may establish a
// sample's canonical transform. Ground truth is preferred; the baseline is
// the fallback when it loads first.
func (r Role) ReferenceEligible() bool {
	return r == RoleGT || r == RoleBaseline
}

// PointsOnly reports whether the role only ever loads point-cloud formats.
func (r Role) PointsOnly() bool {
	return r == RoleBaselinePoints || r == RoleCandidatePoints
}

// Method returns the method name this role loads given the group's current
// candidate method.
func (r Role) Method(g *config.Group, current string) string {
	switch r {
	case RoleGT:
		return "gt"
	case RoleInput:
		return "input"
	case RoleBaseline, RoleBaselinePoints:
		return g.BaselineMethod
	default:
		return current
	}
}

// SampleKey identifies a sample across groups: "<datasetDir>/<sampleId>".
type SampleKey string

// Key builds the SampleKey for a sample in a dataset.
func Key(datasetDir, sample string) SampleKey {
	return SampleKey(path.Join(datasetDir, sample))
}

// Request is what a Viewport asked to display.
type Request struct {
	Sample string
	Method string
}

func (r Request) String() string {
	return r.Sample + "_" + r.Method
}
