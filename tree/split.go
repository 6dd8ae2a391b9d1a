package tree

import (
	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rng"
)

// offset is a 2D integer displacement used by a SplitFunction.
type offset struct {
	dx, dy int
}

// SplitFunction is a randomized binary predicate over a pixel's
// neighborhood — the weak learner evaluated by the node trial loop. It is
// parameterized by one or two offsets drawn uniformly from [-R, R]^2.
type SplitFunction struct {
	params []offset
}

// NewSplitFunction draws a fresh random split function: the number of
// offsets (1 or 2) and each offset's coordinates are drawn uniformly from
// the generator r, bounded by radius.
func NewSplitFunction(r *rng.Source, radius int) *SplitFunction {
	count := r.IntRange(1, 2)
	f := &SplitFunction{params: make([]offset, count)}
	for i := range f.params {
		f.params[i] = offset{
			dx: r.IntRange(-radius, radius),
			dy: r.IntRange(-radius, radius),
		}
	}
	return f
}

// projectCoord folds an out-of-range sample coordinate back inside the
// image via reflect-at-boundary: offsets are first clamped to half the
// image dimension (guaranteeing a single reflection suffices), then the
// low side is negated and the high side mirrored around width/height - 1.
func projectCoord(img *imageset.Image, x, y, dx, dy int) (int, int) {
	halfWidth := img.Width / 2
	halfHeight := img.Height / 2

	dx = clip(dx, -halfWidth, halfWidth)
	dy = clip(dy, -halfHeight, halfHeight)

	rx := x + dx
	ry := y + dy

	if rx < 0 {
		rx = -rx
	}
	if ry < 0 {
		ry = -ry
	}
	if rx > img.Width-1 {
		rx = 2*(img.Width-1) - rx
	}
	if ry > img.Height-1 {
		ry = 2*(img.Height-1) - ry
	}

	return rx, ry
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParamCount returns the number of offsets this split function holds.
func (f *SplitFunction) ParamCount() int {
	return len(f.params)
}

// Param returns the i'th offset as (dx, dy).
func (f *SplitFunction) Param(i int) (int, int) {
	return f.params[i].dx, f.params[i].dy
}

// setParams rebuilds the split function from raw offsets.
func (f *SplitFunction) setParams(raw [][2]int32) {
	f.params = make([]offset, len(raw))
	for i, p := range raw {
		f.params[i] = offset{dx: int(p[0]), dy: int(p[1])}
	}
}

// Evaluate applies the split at pixel (x, y) of img. A zero-parameter
// split function (only reachable via deserialization of a malformed
// stream; training never constructs one) always returns false.
func (f *SplitFunction) Evaluate(img *imageset.Image, x, y int) bool {
	switch len(f.params) {
	case 1:
		px, py := projectCoord(img, x, y, f.params[0].dx, f.params[0].dy)
		return int32(img.At(x, y)) > int32(img.At(px, py))
	case 2:
		p0x, p0y := projectCoord(img, x, y, f.params[0].dx, f.params[0].dy)
		p1x, p1y := projectCoord(img, x, y, f.params[1].dx, f.params[1].dy)
		return int32(img.At(p1x, p1y)) > int32(img.At(p0x, p0y))
	default:
		return false
	}
}
