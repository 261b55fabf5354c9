package models

// sortedFace orders a face's indices so any rotation or reflection of the
// same triangle maps to one key.
func sortedFace(v [3]int) [3]int {
	if v[0] > v[1] {
		v[0], v[1] = v[1], v[0]
	}
	if v[1] > v[2] {
		v[1], v[2] = v[2], v[1]
	}
	if v[0] > v[1] {
		v[0], v[1] = v[1], v[0]
	}
	return v
}

// reversed reports whether v winds opposite to its sorted order.
func reversed(v [3]int) bool {
	n := 0
	for _, p := range [3][2]int{{0, 1}, {0, 2}, {1, 2}} {
		if v[p[0]] > v[p[1]] {
			n++
		}
	}
	return n%2 == 1
}

// filterFaces keeps the faces for which keep returns true and reports how
// many were dropped.
func (m *Mesh) filterFaces(keep func(Face) bool) int {
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if keep(f) {
			kept = append(kept, f)
		}
	}
	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// DeduplicateFaces removes faces that repeat an earlier face with the same
// winding. Opposite windings survive; reconstructions are drawn double-sided.
func (m *Mesh) DeduplicateFaces() int {
	type key struct {
		v        [3]int
		reversed bool
	}
	seen := make(map[key]struct{}, len(m.Faces))
	return m.filterFaces(func(f Face) bool {
		k := key{sortedFace(f.V), reversed(f.V)}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}

// RemoveDegenerateFaces removes faces with a repeated index or no area.
func (m *Mesh) RemoveDegenerateFaces() int {
	const minArea = 1e-10
	return m.filterFaces(func(f Face) bool {
		if f.V[0] == f.V[1] || f.V[1] == f.V[2] || f.V[0] == f.V[2] {
			return false
		}
		return m.faceNormal(f).Len()*0.5 > minArea
	})
}

// CleanFaces drops degenerate and duplicate triangles and returns how many
// went. Vertices are untouched so bounds still match the file.
func (m *Mesh) CleanFaces() int {
	if m.Topology == TopologyPoints {
		return 0
	}
	return m.RemoveDegenerateFaces() + m.DeduplicateFaces()
}
