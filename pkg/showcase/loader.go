package showcase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"fortio.org/log"
	"golang.org/x/sync/singleflight"

	"github.com/taigrr/trophycase/pkg/config"
	"github.com/taigrr/trophycase/pkg/models"
)

// ProgressFunc receives bytes read so far and the total (0 if unknown).
// It is called on the loading goroutine.
type ProgressFunc func(read, total int64)

// Attempt records one failed candidate.
type Attempt struct {
	Path string
	Err  error
}

// ExhaustedError is returned when no candidate path produced geometry.
type ExhaustedError struct {
	Sample   string
	Method   string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no loadable asset for %s_%s (%d candidates)", e.Sample, e.Method, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Path, a.Err)
	}
	return b.String()
}

// Unwrap exposes each candidate's error to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Asset is a decoded mesh and the path it came from.
type Asset struct {
	Mesh *models.Mesh
	Path string
}

// Loader reads assets from a data root. Concurrent loads of the same path
// share one read and decode; each caller gets its own mesh.
type Loader struct {
	fsys fs.FS
	sf   singleflight.Group
}

// NewLoader returns a loader reading from fsys, rooted at the data root.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// CandidatePaths lists the paths tried for a role, in order.
func CandidatePaths(g *config.Group, sample, method string, role Role) []string {
	var exts []string
	switch {
	case role.PointsOnly():
		exts = g.PointFormats
	case method == "input":
		exts = append(append(exts, g.PointFormats...), g.MeshFormats...)
	default:
		exts = append(append(exts, g.MeshFormats...), g.PointFormats...)
	}
	paths := make([]string, 0, len(exts))
	for _, ext := range exts {
		paths = append(paths, path.Join(g.DatasetDir, sample+"_"+method+"."+strings.TrimPrefix(ext, ".")))
	}
	return paths
}

// Load tries each candidate path in order and returns the first that
// decodes. If all fail the error is an *ExhaustedError. Context
// cancellation stops the search immediately.
func (l *Loader) Load(ctx context.Context, g *config.Group, sample, method string, role Role, progress ProgressFunc) (*Asset, error) {
	exhausted := &ExhaustedError{Sample: sample, Method: method}
	for _, p := range CandidatePaths(g, sample, method, role) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mesh, err := l.loadPath(ctx, p, progress)
		if err == nil {
			log.LogVf("loaded %s: %d vertices, %d faces", p, mesh.VertexCount(), mesh.TriangleCount())
			return &Asset{Mesh: mesh, Path: p}, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		log.S(log.Verbose, "candidate failed", log.Str("path", p), log.Str("err", err.Error()))
		exhausted.Attempts = append(exhausted.Attempts, Attempt{Path: p, Err: err})
	}
	return nil, exhausted
}

func (l *Loader) loadPath(ctx context.Context, p string, progress ProgressFunc) (*models.Mesh, error) {
	v, err, shared := l.sf.Do(p, func() (any, error) {
		return l.decode(ctx, p, progress)
	})
	if err != nil {
		return nil, err
	}
	mesh := v.(*models.Mesh)
	if shared {
		// Each viewport releases its own mesh.
		mesh = mesh.Clone()
	}
	return mesh, nil
}

func (l *Loader) decode(ctx context.Context, p string, progress ProgressFunc) (*models.Mesh, error) {
	f, err := l.fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var total int64
	if st, err := f.Stat(); err == nil {
		total = st.Size()
	}
	r := &progressReader{ctx: ctx, r: f, total: total, fn: progress}
	mesh, err := models.Decode(path.Ext(p), r, path.Base(p))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return mesh, nil
}

// progressReader reports bytes read and stops on context cancellation.
type progressReader struct {
	ctx   context.Context
	r     io.Reader
	read  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.fn != nil && n > 0 {
		p.fn(p.read, p.total)
	}
	return n, err
}
