// Package coverage finds the smallest set of granule footprints whose union contains the
// area of interest.
package coverage

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/smap-coverage-cli/internal/footprint"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

type Status int

const (
	StatusUncovered Status = iota
	StatusCovered
	// StatusMalformed means no cover was found and at least one footprint could not take
	// part in the search.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusCovered:
		return "covered"
	case StatusMalformed:
		return "malformed"
	default:
		return "uncovered"
	}
}

// Resolution is the outcome for one date. Indices is empty unless Status is StatusCovered.
type Resolution struct {
	Indices    []int
	Status     Status
	Degenerate []int
	Err        error
}

func (r Resolution) Required() int { return len(r.Indices) }

func (r Resolution) Covered() bool { return r.Status == StatusCovered }

type Option func(*Resolver)

// WithLogger sets the logger used for warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithWarnAbove logs a warning when a date has more than n footprints. Enumeration still
// runs to completion.
func WithWarnAbove(n int) Option {
	return func(r *Resolver) { r.warnAbove = n }
}

// Resolver is safe for concurrent use. Every Resolve call builds its own OGR geometries and
// only the immutable area polygon is shared.
type Resolver struct {
	aoi       orb.Polygon
	warnAbove int
	log       zerolog.Logger
}

func NewResolver(aoi orb.Polygon, opts ...Option) (*Resolver, error) {
	g, err := footprint.ToGeometry(aoi)
	if err != nil {
		return nil, fmt.Errorf("failed to build area of interest: %w", err)
	}
	g.Close()

	r := &Resolver{aoi: aoi, warnAbove: 12, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the first subset, smallest first, whose footprint union contains the area
// of interest. Boundary points count as contained. Degenerate footprints are left out of the
// search: a subset that covers with one of them also covers without it, and that smaller
// subset is enumerated first.
func (r *Resolver) Resolve(footprints []orb.Polygon) Resolution {
	res := Resolution{Status: StatusUncovered}
	n := len(footprints)
	if n == 0 {
		return res
	}
	if r.warnAbove > 0 && n > r.warnAbove {
		r.log.Warn().Int("footprints", n).Uint64("combinations", CombinationCount(n)).
			Msg("Large number of footprints, coverage search may take a long time")
	}

	area, err := footprint.ToGeometry(r.aoi)
	if err != nil {
		res.Status = StatusMalformed
		res.Err = fmt.Errorf("failed to build area of interest: %w", err)
		return res
	}
	defer area.Close()

	geoms := make([]*godal.Geometry, n)
	defer func() {
		for _, g := range geoms {
			if g != nil {
				g.Close()
			}
		}
	}()
	for i, p := range footprints {
		if footprint.IsDegenerate(p) {
			res.Degenerate = append(res.Degenerate, i)
			continue
		}
		g, err := footprint.ToGeometry(p)
		if err != nil {
			res.Degenerate = append(res.Degenerate, i)
			res.Err = err
			continue
		}
		geoms[i] = g
	}

	EachCombination(n, func(idx []int) bool {
		for _, i := range idx {
			if geoms[i] == nil {
				return true
			}
		}
		ok, err := covers(area, geoms, idx)
		if err != nil {
			r.log.Debug().Err(err).Ints("subset", idx).Msg("Union failed")
			res.Err = err
			return true
		}
		if ok {
			res.Indices = append([]int(nil), idx...)
			res.Status = StatusCovered
			return false
		}
		return true
	})

	if res.Status != StatusCovered && (len(res.Degenerate) > 0 || res.Err != nil) {
		res.Status = StatusMalformed
	}
	return res
}

func covers(area *godal.Geometry, geoms []*godal.Geometry, idx []int) (bool, error) {
	if len(idx) == 1 {
		return geoms[idx[0]].Contains(area), nil
	}

	union, err := geoms[idx[0]].Union(geoms[idx[1]])
	if err != nil {
		return false, fmt.Errorf("failed to union footprints %d and %d: %w", idx[0], idx[1], err)
	}
	for _, i := range idx[2:] {
		next, err := union.Union(geoms[i])
		union.Close()
		if err != nil {
			return false, fmt.Errorf("failed to union footprint %d: %w", i, err)
		}
		union = next
	}
	defer union.Close()
	return union.Contains(area), nil
}
