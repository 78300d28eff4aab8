package coverage

import (
	"sync"
	"testing"

	"github.com/forest-guardian/smap-coverage-cli/internal/footprint"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinations(t *testing.T) {
	for n := 0; n <= 8; n++ {
		combos := Combinations(n)
		require.Len(t, combos, int(CombinationCount(n)), "n=%d", n)

		seen := map[string]bool{}
		prevLen := 0
		for _, c := range combos {
			require.NotEmpty(t, c)
			assert.GreaterOrEqual(t, len(c), prevLen)
			prevLen = len(c)
			for i := range c {
				assert.True(t, c[i] >= 0 && c[i] < n)
				if i > 0 {
					assert.Less(t, c[i-1], c[i])
				}
			}
			key := ""
			for _, v := range c {
				key += string(rune('a' + v))
			}
			assert.False(t, seen[key], "duplicate %v", c)
			seen[key] = true
		}
	}
}

func TestCombinationsOrder(t *testing.T) {
	assert.Equal(t, [][]int{
		{0}, {1}, {2},
		{0, 1}, {0, 2}, {1, 2},
		{0, 1, 2},
	}, Combinations(3))
}

func TestCombinationCount(t *testing.T) {
	assert.Equal(t, uint64(0), CombinationCount(0))
	assert.Equal(t, uint64(0), CombinationCount(-1))
	assert.Equal(t, uint64(1), CombinationCount(1))
	assert.Equal(t, uint64(1023), CombinationCount(10))
}

func TestEachCombinationStops(t *testing.T) {
	calls := 0
	EachCombination(5, func(c []int) bool {
		calls++
		return len(c) < 2
	})
	assert.Equal(t, 6, calls)
}

func box(t *testing.T, bbox string) orb.Polygon {
	t.Helper()
	p, err := footprint.ParseBoundingBox(bbox)
	require.NoError(t, err)
	return p
}

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(box(t, "9.0,35.7,9.8,36.6"))
	require.NoError(t, err)
	return r
}

func TestResolveEmpty(t *testing.T) {
	res := newResolver(t).Resolve(nil)
	assert.Empty(t, res.Indices)
	assert.Equal(t, StatusUncovered, res.Status)
	assert.Equal(t, 0, res.Required())
}

func TestResolveFootprintEqualToArea(t *testing.T) {
	res := newResolver(t).Resolve([]orb.Polygon{box(t, "9.0,35.7,9.8,36.6")})
	assert.Equal(t, []int{0}, res.Indices)
	assert.True(t, res.Covered())
}

func TestResolveTwoHalves(t *testing.T) {
	footprints := []orb.Polygon{
		box(t, "8.5,35.0,9.4,37.0"),
		box(t, "9.3,35.0,10.5,37.0"),
	}
	res := newResolver(t).Resolve(footprints)
	assert.Equal(t, []int{0, 1}, res.Indices)
	assert.Equal(t, StatusCovered, res.Status)
	assert.Equal(t, 2, res.Required())
}

func TestResolvePrefersSmallestCover(t *testing.T) {
	footprints := []orb.Polygon{
		box(t, "8.5,35.0,9.4,37.0"),
		box(t, "9.3,35.0,10.5,37.0"),
		box(t, "8.0,35.0,10.0,37.0"),
	}
	res := newResolver(t).Resolve(footprints)
	assert.Equal(t, []int{2}, res.Indices)
}

func TestResolveNoCover(t *testing.T) {
	footprints := []orb.Polygon{
		box(t, "8.5,35.0,9.4,37.0"),
		box(t, "9.5,35.0,10.5,37.0"),
	}
	res := newResolver(t).Resolve(footprints)
	assert.Empty(t, res.Indices)
	assert.Equal(t, StatusUncovered, res.Status)
}

func TestResolveIdempotent(t *testing.T) {
	r := newResolver(t)
	footprints := []orb.Polygon{
		box(t, "0,0,1,1"),
		box(t, "8.5,35.0,9.4,37.0"),
		box(t, "9.3,35.0,10.5,37.0"),
	}
	first := r.Resolve(footprints)
	second := r.Resolve(footprints)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{1, 2}, first.Indices)
}

func TestResolveDegenerate(t *testing.T) {
	degenerate, err := footprint.ParsePolygon("36 9 36 9 36 9 36 9")
	require.NoError(t, err)

	r := newResolver(t)
	res := r.Resolve([]orb.Polygon{degenerate, box(t, "0,0,1,1")})
	assert.Empty(t, res.Indices)
	assert.Equal(t, StatusMalformed, res.Status)
	assert.Equal(t, []int{0}, res.Degenerate)

	res = r.Resolve([]orb.Polygon{degenerate, box(t, "8,35,10,37")})
	assert.Equal(t, []int{1}, res.Indices)
	assert.Equal(t, StatusCovered, res.Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "covered", StatusCovered.String())
	assert.Equal(t, "uncovered", StatusUncovered.String())
	assert.Equal(t, "malformed", StatusMalformed.String())
}

func TestResolveConcurrent(t *testing.T) {
	r := newResolver(t)
	footprints := []orb.Polygon{
		box(t, "0,0,1,1"),
		box(t, "8.5,35.0,9.4,37.0"),
		box(t, "9.3,35.0,10.5,37.0"),
	}
	want := r.Resolve(footprints)

	results := make([]Resolution, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(footprints)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
