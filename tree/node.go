package tree

import (
	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rferr"
	"github.com/ramenhut/simple-rdf/rng"
)

// Params configures a single decision tree. Every histogram allocated
// during training or classification uses ClassCount slots.
type Params struct {
	MaxTreeDepth   int
	NodeTrialCount int
	ClassCount     int
	SearchRadius   int
	MinSampleCount int
}

// Sample is a non-owning reference to one training pixel: the image it
// came from plus its coordinate. Exists only during tree training.
type Sample struct {
	Source *imageset.ImageSet
	X, Y   int
}

// Node is a binary decision tree node. It is either a leaf, carrying a
// class histogram, or internal, carrying a split function and two
// children. A node with exactly one child is never constructed by
// training and is treated as a structural error during classification.
type Node struct {
	isLeaf    bool
	histogram *Histogram
	function  *SplitFunction
	left      *Node
	right     *Node
}

// train grows the subtree rooted at n from samples, recording
// sampleHistogram as the node's own class distribution. depth is the
// node's distance from the tree root.
func (n *Node) train(params Params, r *rng.Source, depth int, samples []Sample, sampleHistogram *Histogram) error {
	n.histogram = sampleHistogram

	if depth >= params.MaxTreeDepth || len(samples) == 0 || len(samples) < params.MinSampleCount {
		n.isLeaf = true
		return nil
	}

	nodeEntropy := n.histogram.Entropy()
	if nodeEntropy == 0 {
		n.isLeaf = true
		return nil
	}

	bestGain := -1.0
	var bestFunction *SplitFunction
	var bestLeft, bestRight []Sample
	var bestLeftHist, bestRightHist *Histogram

	parentTotal := float64(n.histogram.SampleTotal())

	for trial := 0; trial < params.NodeTrialCount; trial++ {
		f := NewSplitFunction(r, params.SearchRadius)

		left := make([]Sample, 0, len(samples))
		right := make([]Sample, 0, len(samples))
		leftHist := NewHistogram(params.ClassCount)
		rightHist := NewHistogram(params.ClassCount)

		for _, s := range samples {
			label := int(s.Source.Label.At(s.X, s.Y))
			if f.Evaluate(s.Source.Image, s.X, s.Y) {
				right = append(right, s)
				rightHist.Increment(label)
			} else {
				left = append(left, s)
				leftHist.Increment(label)
			}
		}

		gain := n.histogram.Entropy() -
			(float64(leftHist.SampleTotal())/parentTotal)*leftHist.Entropy() -
			(float64(rightHist.SampleTotal())/parentTotal)*rightHist.Entropy()

		// NOTE: >=, not >. Later trials overwrite equally-good earlier
		// ones; this tie-break is preserved deliberately for behavioral
		// parity under a fixed seed.
		if gain >= bestGain {
			bestGain = gain
			bestFunction = f
			bestLeft = left
			bestRight = right
			bestLeftHist = leftHist
			bestRightHist = rightHist

			if gain == nodeEntropy {
				break
			}
		}
	}

	n.function = bestFunction
	n.isLeaf = false

	n.left = &Node{}
	n.right = &Node{}

	if err := n.left.train(params, r, depth+1, bestLeft, bestLeftHist); err != nil {
		return err
	}
	if err := n.right.train(params, r, depth+1, bestRight, bestRightHist); err != nil {
		return err
	}

	return nil
}

// classify routes (x, y) of img down to a leaf and returns a copy of its
// histogram. A node with exactly one child is a structural error.
func (n *Node) classify(img *imageset.Image, x, y int) (*Histogram, error) {
	if (n.left == nil) != (n.right == nil) {
		return nil, rferr.New(rferr.StructuralError, "decision node has exactly one child")
	}

	if n.isLeaf {
		return n.histogram.Clone(), nil
	}

	if n.function.Evaluate(img, x, y) {
		return n.right.classify(img, x, y)
	}
	return n.left.classify(img, x, y)
}
