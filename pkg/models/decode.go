package models

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned by Decode for an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrEmptyGeometry is returned when a file parses but holds no drawable geometry.
	ErrEmptyGeometry = errors.New("no geometry")
)

// Decoder reads one model format from a stream.
type Decoder interface {
	Load(r io.Reader, name string) (*Mesh, error)
}

// DecoderFor returns the decoder for a file extension, with or without the
// leading dot.
func DecoderFor(ext string) (Decoder, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "obj":
		return NewOBJLoader(), nil
	case "stl":
		return NewSTLLoader(), nil
	case "glb", "gltf":
		return NewGLTFLoader(), nil
	case "ply":
		return NewPLYLoader(), nil
	default:
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// Decode parses r according to ext. Triangle meshes come back with
// degenerate and duplicate faces removed.
func Decode(ext string, r io.Reader, name string) (*Mesh, error) {
	dec, err := DecoderFor(ext)
	if err != nil {
		return nil, err
	}
	mesh, err := dec.Load(r, name)
	if err != nil {
		return nil, err
	}
	mesh.CleanFaces()
	return mesh, nil
}
