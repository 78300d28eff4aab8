// Package report turns per-date coverage results into KML files and the selection workbook.
package report

import (
	"context"
	"fmt"

	"github.com/forest-guardian/smap-coverage-cli/internal/coverage"
	"github.com/forest-guardian/smap-coverage-cli/internal/granule"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// DateReport is the coverage outcome of one calendar date.
type DateReport struct {
	Date       string
	Label      string
	Records    []granule.Record
	Resolution coverage.Resolution
}

// Label names the KML file of a date, e.g. "2021-03-01 ~ 2 from 5 polygons.kml".
func Label(date string, required, total int) string {
	return fmt.Sprintf("%s ~ %d from %d polygons.kml", date, required, total)
}

// Resolver is satisfied by *coverage.Resolver. Resolve must be safe for concurrent use.
type Resolver interface {
	Resolve(footprints []orb.Polygon) coverage.Resolution
}

// Assemble resolves every group, at most workers at a time. Reports keep the order of groups.
func Assemble(ctx context.Context, resolver Resolver, groups []granule.DateGroup, workers int) ([]DateReport, error) {
	reports := make([]DateReport, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, group := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := resolver.Resolve(group.Footprints())
			reports[i] = DateReport{
				Date:       group.Date,
				Label:      Label(group.Date, res.Required(), len(group.Records)),
				Records:    group.Records,
				Resolution: res,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Counts tallies reports by coverage status.
func Counts(reports []DateReport) map[coverage.Status]int {
	counts := make(map[coverage.Status]int)
	for _, r := range reports {
		counts[r.Resolution.Status]++
	}
	return counts
}
