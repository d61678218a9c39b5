// Package spatial indexes region bounding boxes so adjacency detection only
// runs the exact geometric test on plausible candidate pairs.
package spatial

import (
	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"

	"github.com/psc-mapa/psc-cli/internal/region"
)

type entry struct {
	rect   rtreego.Rect
	region *region.Region
}

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is an R-tree over the planar bounding boxes of a region set. The
// boxes are expanded by the adjacency tolerance at build time, so a plain
// intersection query already accounts for near-touching regions.
type Index struct {
	tree       *rtreego.Rtree
	toleranceM float64
}

// NewIndex bulk-loads the regions into an R-tree. Each bounding box is
// padded by toleranceM on every side.
func NewIndex(regions []*region.Region, toleranceM float64) (*Index, error) {
	entries := make([]rtreego.Spatial, 0, len(regions))
	for _, r := range regions {
		rect, err := boundsRect(r, toleranceM)
		if err != nil {
			return nil, eris.Wrapf(err, "spatial: code %s", r.Code)
		}
		entries = append(entries, &entry{rect: rect, region: r})
	}
	return &Index{
		tree:       rtreego.NewTree(2, 25, 50, entries...),
		toleranceM: toleranceM,
	}, nil
}

// Len returns the number of indexed regions.
func (ix *Index) Len() int {
	return ix.tree.Size()
}

// Candidates returns the regions whose padded bounding boxes intersect the
// given region's padded box, excluding the region itself. Order is not
// specified.
func (ix *Index) Candidates(r *region.Region) ([]*region.Region, error) {
	rect, err := boundsRect(r, ix.toleranceM)
	if err != nil {
		return nil, eris.Wrapf(err, "spatial: code %s", r.Code)
	}

	hits := ix.tree.SearchIntersect(rect)
	out := make([]*region.Region, 0, len(hits))
	for _, h := range hits {
		e := h.(*entry)
		if e.region.Code == r.Code {
			continue
		}
		out = append(out, e.region)
	}
	return out, nil
}

func boundsRect(r *region.Region, pad float64) (rtreego.Rect, error) {
	min, max := r.Planar.BBox()
	return rtreego.NewRect(
		rtreego.Point{min.X - pad, min.Y - pad},
		[]float64{max.X - min.X + 2*pad, max.Y - min.Y + 2*pad},
	)
}
