package showcase

import (
	"fortio.org/log"

	"github.com/taigrr/trophycase/pkg/config"
)

// Registry maps samples to their canonical transform. The first
// reference-eligible object to load for a sample wins; entries are never
// replaced. A Registry is owned by the session's loop goroutine.
type Registry struct {
	refs map[SampleKey]CanonicalTransform
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[SampleKey]CanonicalTransform)}
}

// Get returns the canonical transform for key, if set.
func (r *Registry) Get(key SampleKey) (CanonicalTransform, bool) {
	t, ok := r.refs[key]
	return t, ok
}

// TrySetReference derives key's canonical transform from obj using g's up
// axis and ground alignment. It returns false, changing nothing, if key
// already has one. On success obj is normalized with the new transform;
// the caller propagates it to the other viewports showing key.
func (r *Registry) TrySetReference(key SampleKey, obj *DisplayedObject, g *config.Group) bool {
	if _, ok := r.refs[key]; ok {
		return false
	}
	t := computeCanonical(obj, g.UpAxis, g.AlignToGround)
	r.refs[key] = t
	Normalize(obj, t)
	log.S(log.Info, "canonical transform set",
		log.Str("sample", string(key)), log.Str("from", obj.Request.Method),
		log.Any("scale", t.Scale), log.Any("translation", t.Translation))
	return true
}

// Len returns the number of samples with a canonical transform.
func (r *Registry) Len() int {
	return len(r.refs)
}
