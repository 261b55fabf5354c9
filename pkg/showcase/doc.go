// Package showcase is the cross-viewport normalization and camera
// synchronization engine.
//
// A Session owns viewport Groups. Each Group shows one sample under several
// roles (ground truth, input, baseline, candidate method and their point
// cloud variants) in sibling Viewports. The first reference-eligible object
// loaded for a sample fixes that sample's CanonicalTransform in the
// Registry; every sibling showing the sample is then re-normalized with it
// so comparisons share scale, orientation and placement.
//
// All engine state belongs to the session's loop goroutine. Asset loads run
// on worker goroutines and hand their results back through Session.Post.
package showcase
