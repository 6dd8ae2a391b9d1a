// Package tree implements the decision-tree induction algorithm at the
// heart of the forest: histogram statistics, the randomized split
// function family, the information-gain node trial loop, and per-pixel
// training/classification of a single tree.
package tree

import (
	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rferr"
	"github.com/ramenhut/simple-rdf/rng"
)

// Tree owns a trained root node plus the parameters it was trained with.
type Tree struct {
	Params Params
	root   *Node
}

// New returns an untrained tree configured with params.
func New(params Params) *Tree {
	return &Tree{Params: params}
}

// Train materializes one Sample per pixel of count images drawn from
// dataset starting at start (wrapping modulo len(dataset)), builds the
// root histogram, and recursively trains the tree. r is the caller's own
// random source; start/count implement the per-tree sampling policy —
// trees with different start values see overlapping-but-rotated views of
// dataset.
func (t *Tree) Train(r *rng.Source, dataset []*imageset.ImageSet, start, count int) error {
	if len(dataset) == 0 || count <= 0 || count > len(dataset) {
		return rferr.New(rferr.InvalidArgument, "invalid parameters for tree training")
	}

	initialHistogram := NewHistogram(t.Params.ClassCount)

	// The per-tree sample vector is the dominant allocation in the
	// system; reserve it up front sized to count * W * H.
	width := dataset[0].Image.Width
	height := dataset[0].Image.Height
	samples := make([]Sample, 0, count*width*height)

	for i := 0; i < count; i++ {
		index := (start + i) % len(dataset)
		img := dataset[index]

		for y := 0; y < img.Image.Height; y++ {
			for x := 0; x < img.Image.Width; x++ {
				label := img.Label.At(x, y)
				samples = append(samples, Sample{Source: img, X: x, Y: y})
				initialHistogram.Increment(int(label))
			}
		}
	}

	t.root = &Node{}
	return t.root.train(t.Params, r, 0, samples, initialHistogram)
}

// ClassifyPixel routes (x, y) of img through the trained tree and returns
// the leaf histogram it lands on.
func (t *Tree) ClassifyPixel(img *imageset.Image, x, y int) (*Histogram, error) {
	if t.root == nil {
		return nil, rferr.New(rferr.InvalidArgument, "tree must be trained before it can classify")
	}
	return t.root.classify(img, x, y)
}

