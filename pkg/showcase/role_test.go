package showcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMethod(t *testing.T) {
	g := testGroup()
	tests := []struct {
		role Role
		want string
	}{
		{RoleGT, "gt"},
		{RoleInput, "input"},
		{RoleBaseline, "unico"},
		{RoleBaselinePoints, "unico"},
		{RoleCandidate, "symm"},
		{RoleCandidatePoints, "symm"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Method(g, "symm"))
		})
	}
}

func TestReferenceEligible(t *testing.T) {
	assert.True(t, RoleGT.ReferenceEligible())
	assert.True(t, RoleBaseline.ReferenceEligible())
	for _, r := range []Role{RoleInput, RoleCandidate, RoleBaselinePoints, RoleCandidatePoints} {
		assert.False(t, r.ReferenceEligible(), r)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("candidate-points")
	require.NoError(t, err)
	assert.Equal(t, RoleCandidatePoints, r)
	_, err = ParseRole("texture")
	assert.Error(t, err)
}

func TestCandidatePaths(t *testing.T) {
	g := testGroup()
	g.MeshFormats = []string{"obj", "glb"}
	tests := []struct {
		name   string
		method string
		role   Role
		want   []string
	}{
		{"input prefers points", "input", RoleInput, []string{"abc/7_input.ply", "abc/7_input.obj", "abc/7_input.glb"}},
		{"mesh first", "symm", RoleCandidate, []string{"abc/7_symm.obj", "abc/7_symm.glb", "abc/7_symm.ply"}},
		{"points only", "unico", RoleBaselinePoints, []string{"abc/7_unico.ply"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidatePaths(g, "7", tt.method, tt.role))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, SampleKey("building/00012"), Key("building", "00012"))
}
