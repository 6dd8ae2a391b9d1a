package tree

import (
	"testing"

	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rng"
)

// buildImageSet constructs a W x H sample whose pixels are taken from
// pixels and whose per-pixel labels are taken from labels (both
// row-major). Unlike imageset.FromDigit, the caller sets every label
// directly; Codex is left at 0.
func buildImageSet(width, height int, pixels, labels []uint8) *imageset.ImageSet {
	img := imageset.NewImage(width, height)
	copy(img.Pixels, pixels)

	lbl := imageset.NewImage(width, height)
	copy(lbl.Pixels, labels)

	return &imageset.ImageSet{Image: img, Label: lbl}
}

// TestZeroEntropyShortCircuit is scenario E1: a uniform-label 4x4 image
// trains a single-leaf root whose histogram puts every sample in the one
// class present, without ever constructing a split.
func TestZeroEntropyShortCircuit(t *testing.T) {
	width, height := 4, 4
	pixels := make([]uint8, width*height)
	labels := make([]uint8, width*height)
	for i := range pixels {
		pixels[i] = 255
		labels[i] = 7
	}

	dataset := []*imageset.ImageSet{buildImageSet(width, height, pixels, labels)}

	params := Params{
		MaxTreeDepth:   5,
		NodeTrialCount: 1,
		ClassCount:     11,
		SearchRadius:   1,
		MinSampleCount: 1,
	}

	tr := New(params)
	source := rng.New(1)
	if err := tr.Train(source, dataset, 0, 1); err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	if !tr.root.isLeaf {
		t.Fatalf("root is not a leaf after zero-entropy short circuit")
	}
	if got := tr.root.histogram.ClassTotal(7); got != uint32(width*height) {
		t.Fatalf("root histogram class 7 total = %d, want %d", got, width*height)
	}
	if total := tr.root.histogram.SampleTotal(); total != uint64(width*height) {
		t.Fatalf("root histogram sample total = %d, want %d", total, width*height)
	}
}

// TestTwoClassSeparability is scenario E2: two structurally distinct,
// non-uniform images with distinct labels must train a tree that
// correctly classifies pixels drawn from either image. A split function
// only ever compares pixel intensities within the image being
// classified, so two uniform images can never be told apart this way;
// the two rows below are built so a same-row neighbor comparison
// differs consistently between them.
func TestTwoClassSeparability(t *testing.T) {
	width, height := 4, 1

	imgA := []uint8{10, 20, 150, 150}
	lblA := []uint8{0, 0, 0, 0}

	imgB := []uint8{150, 140, 130, 120}
	lblB := []uint8{1, 1, 1, 1}

	dataset := []*imageset.ImageSet{
		buildImageSet(width, height, imgA, lblA),
		buildImageSet(width, height, imgB, lblB),
	}

	params := Params{
		MaxTreeDepth:   4,
		NodeTrialCount: 200,
		ClassCount:     2,
		SearchRadius:   1,
		MinSampleCount: 1,
	}

	tr := New(params)
	source := rng.New(7)
	if err := tr.Train(source, dataset, 0, 2); err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	histA, err := tr.ClassifyPixel(dataset[0].Image, 0, 0)
	if err != nil {
		t.Fatalf("ClassifyPixel on image A returned error: %v", err)
	}
	if got := histA.DominantClass(); got != 0 {
		t.Fatalf("dominant class for image A pixel = %d, want 0", got)
	}

	histB, err := tr.ClassifyPixel(dataset[1].Image, 0, 0)
	if err != nil {
		t.Fatalf("ClassifyPixel on image B returned error: %v", err)
	}
	if got := histB.DominantClass(); got != 1 {
		t.Fatalf("dominant class for image B pixel = %d, want 1", got)
	}
}

// TestBackgroundLabelPreservedInLeaf is scenario E3: a 3x3 image with a
// single non-background foreground pixel must still carry the
// background class through leaf histograms for every other pixel.
func TestBackgroundLabelPreservedInLeaf(t *testing.T) {
	width, height := 3, 3
	pixels := make([]uint8, width*height)
	labels := make([]uint8, width*height)
	for i := range labels {
		labels[i] = imageset.BackgroundLabel
	}
	pixels[4] = 255
	labels[4] = 5

	dataset := []*imageset.ImageSet{buildImageSet(width, height, pixels, labels)}

	params := Params{
		MaxTreeDepth:   1,
		NodeTrialCount: 1,
		ClassCount:     imageset.ClassCount,
		SearchRadius:   1,
		MinSampleCount: 1,
	}

	tr := New(params)
	source := rng.New(3)
	if err := tr.Train(source, dataset, 0, 1); err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	var background, foreground uint32
	var visit func(n *Node)
	visit = func(n *Node) {
		if n.isLeaf {
			background += n.histogram.ClassTotal(imageset.BackgroundLabel)
			foreground += n.histogram.ClassTotal(5)
			return
		}
		visit(n.left)
		visit(n.right)
	}
	visit(tr.root)

	if background != 8 {
		t.Fatalf("leaf histograms background total = %d, want 8", background)
	}
	if foreground != 1 {
		t.Fatalf("leaf histograms class 5 total = %d, want 1", foreground)
	}
}

// TestInformationGainNonNegative walks every internal node of a trained
// tree and checks that the split chosen there never makes things worse
// than not splitting at all: its weighted child entropy never exceeds the
// parent's.
func TestInformationGainNonNegative(t *testing.T) {
	width, height := 4, 4
	pixels := []uint8{
		10, 200, 10, 200,
		200, 10, 200, 10,
		10, 200, 10, 200,
		200, 10, 200, 10,
	}
	labels := []uint8{
		0, 1, 0, 1,
		1, 0, 1, 0,
		0, 1, 0, 1,
		1, 0, 1, 0,
	}

	dataset := []*imageset.ImageSet{buildImageSet(width, height, pixels, labels)}

	params := Params{
		MaxTreeDepth:   3,
		NodeTrialCount: 50,
		ClassCount:     2,
		SearchRadius:   2,
		MinSampleCount: 1,
	}

	tr := New(params)
	source := rng.New(42)
	if err := tr.Train(source, dataset, 0, 1); err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	assertGainNonNegative(t, tr.root)
}

func assertGainNonNegative(t *testing.T, n *Node) {
	if n.isLeaf {
		return
	}

	parentEntropy := n.histogram.Entropy()
	parentTotal := float64(n.histogram.SampleTotal())
	leftEntropy := n.left.histogram.Entropy()
	rightEntropy := n.right.histogram.Entropy()
	leftTotal := float64(n.left.histogram.SampleTotal())
	rightTotal := float64(n.right.histogram.SampleTotal())

	weighted := (leftTotal/parentTotal)*leftEntropy + (rightTotal/parentTotal)*rightEntropy
	if weighted > parentEntropy+1e-9 {
		t.Fatalf("split increased weighted entropy: parent=%v weighted_children=%v", parentEntropy, weighted)
	}

	assertGainNonNegative(t, n.left)
	assertGainNonNegative(t, n.right)
}

// TestTreeStructuralInvariant walks a trained tree and checks that every
// node has either zero or two children, every leaf's histogram is sized
// to params.ClassCount, and the sum of leaf sample totals equals the
// root's sample total.
func TestTreeStructuralInvariant(t *testing.T) {
	width, height := 4, 4
	pixels := make([]uint8, width*height)
	labels := make([]uint8, width*height)
	for i := range pixels {
		pixels[i] = uint8(i * 16)
		labels[i] = uint8(i % 3)
	}

	dataset := []*imageset.ImageSet{buildImageSet(width, height, pixels, labels)}

	params := Params{
		MaxTreeDepth:   3,
		NodeTrialCount: 20,
		ClassCount:     3,
		SearchRadius:   2,
		MinSampleCount: 1,
	}

	tr := New(params)
	source := rng.New(11)
	if err := tr.Train(source, dataset, 0, 1); err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	var leafTotal uint64
	walkNode(t, tr.root, params.ClassCount, &leafTotal)

	if leafTotal != tr.root.histogram.SampleTotal() {
		t.Fatalf("sum of leaf sample totals = %d, want %d", leafTotal, tr.root.histogram.SampleTotal())
	}
}

func walkNode(t *testing.T, n *Node, classCount int, leafTotal *uint64) {
	if (n.left == nil) != (n.right == nil) {
		t.Fatalf("node has exactly one child")
	}

	if n.isLeaf {
		if n.histogram.ClassCount() != classCount {
			t.Fatalf("leaf histogram class count = %d, want %d", n.histogram.ClassCount(), classCount)
		}
		*leafTotal += n.histogram.SampleTotal()
		return
	}

	walkNode(t, n.left, classCount, leafTotal)
	walkNode(t, n.right, classCount, leafTotal)
}

// TestTrainRejectsInvalidParameters checks the InvalidArgument boundary
// on Tree.Train.
func TestTrainRejectsInvalidParameters(t *testing.T) {
	params := Params{MaxTreeDepth: 1, NodeTrialCount: 1, ClassCount: 2, SearchRadius: 1, MinSampleCount: 1}
	tr := New(params)
	source := rng.New(1)

	if err := tr.Train(source, nil, 0, 1); err == nil {
		t.Fatalf("Train with empty dataset returned nil error")
	}

	dataset := []*imageset.ImageSet{buildImageSet(2, 2, make([]uint8, 4), make([]uint8, 4))}
	if err := tr.Train(source, dataset, 0, 5); err == nil {
		t.Fatalf("Train with count exceeding dataset length returned nil error")
	}
}

// TestMinSampleCountOneSingleImageLeafCoverage is the boundary scenario
// where min_sample_count = 1 against a single image: every pixel must
// end up in exactly one leaf, and the leaves' sample totals must sum to
// width * height.
func TestMinSampleCountOneSingleImageLeafCoverage(t *testing.T) {
	width, height := 5, 5
	pixels := make([]uint8, width*height)
	labels := make([]uint8, width*height)
	for i := range pixels {
		pixels[i] = uint8(i * 7 % 256)
		labels[i] = uint8(i % 2)
	}

	dataset := []*imageset.ImageSet{buildImageSet(width, height, pixels, labels)}

	params := Params{
		MaxTreeDepth:   10,
		NodeTrialCount: 10,
		ClassCount:     2,
		SearchRadius:   2,
		MinSampleCount: 1,
	}

	tr := New(params)
	source := rng.New(5)
	if err := tr.Train(source, dataset, 0, 1); err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	var leafTotal uint64
	walkNode(t, tr.root, params.ClassCount, &leafTotal)

	if leafTotal != uint64(width*height) {
		t.Fatalf("leaf sample totals sum to %d, want %d", leafTotal, width*height)
	}
}
