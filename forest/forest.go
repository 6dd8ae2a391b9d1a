// Package forest trains and evaluates an ensemble of per-pixel decision
// trees, parallelizing training across passes capped at the host's
// logical CPU count and persisting the trained ensemble in a fixed-width
// binary layout compatible with the reference implementation this
// package is modeled on: forest params, a forest-level tree params copy,
// then every tree in turn, each carrying its own per-tree params copy
// ahead of its breadth-first node stream.
package forest

import (
	"encoding/binary"
	"os"
	"runtime"
	"sync"

	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rferr"
	"github.com/ramenhut/simple-rdf/rng"
	"github.com/ramenhut/simple-rdf/tree"
)

// BackgroundLabel is the class index suppressed when voting at the image
// level; it is also what Classify returns for unusable input.
const BackgroundLabel = imageset.BackgroundLabel

// Params configures the ensemble: how many trees to grow and what
// fraction of the dataset each tree trains against.
type Params struct {
	TotalTreeCount         uint32
	TreeTrainingPercentage uint32
}

// Forest is an ensemble of independently-trained trees sharing a single
// set of tree.Params. It must be trained, or loaded, before it can
// classify.
type Forest struct {
	ForestParams Params
	TreeParams   tree.Params
	Trees        []*tree.Tree
}

// New returns an untrained forest configured with forestParams and
// treeParams.
func New(forestParams Params, treeParams tree.Params) *Forest {
	return &Forest{ForestParams: forestParams, TreeParams: treeParams}
}

// Train grows every tree in the ensemble against dataset. Training is
// split into passes sized to the number of logical CPUs: each pass
// starts one goroutine per tree and joins all of them with a
// sync.WaitGroup before starting the next pass, so at most one pass's
// worth of trees are ever training concurrently. Each worker slot owns
// one pooled rng.Source across every pass, reseeded from clk at the
// start of each tree it trains, so trees are never accidentally
// correlated through a shared generator.
func (f *Forest) Train(dataset []*imageset.ImageSet, clk rng.Clock) error {
	if len(dataset) == 0 {
		return rferr.New(rferr.InvalidArgument, "training data must not be empty")
	}
	if f.ForestParams.TotalTreeCount == 0 || f.ForestParams.TreeTrainingPercentage == 0 {
		return rferr.New(rferr.InvalidArgument, "invalid forest parameters")
	}

	treeCount := int(f.ForestParams.TotalTreeCount)
	f.Trees = make([]*tree.Tree, treeCount)

	trainRange := len(dataset) / treeCount
	if trainRange == 0 {
		trainRange = 1
	}
	trainCount := (int(f.ForestParams.TreeTrainingPercentage) * len(dataset)) / 100
	if trainCount == 0 {
		trainCount = 1
	}

	workerCount := runtime.GOMAXPROCS(0)
	if workerCount < 1 {
		workerCount = 1
	}

	passCount := (treeCount + workerCount - 1) / workerCount

	sources := make([]*rng.Source, workerCount)
	for i := range sources {
		sources[i] = rng.New(clk.Seed())
	}

	var trainErr error
	var errMu sync.Mutex

	for pass := 0; pass < passCount; pass++ {
		passStart := pass * workerCount
		passTreeCount := workerCount
		if passStart+passTreeCount > treeCount {
			passTreeCount = treeCount - passStart
		}

		var wg sync.WaitGroup
		for i := 0; i < passTreeCount; i++ {
			treeIndex := passStart + i
			start := i * trainRange

			wg.Add(1)
			go func(treeIndex, start, slot int) {
				defer wg.Done()

				source := sources[slot]
				source.Reseed(clk.Seed())

				t := tree.New(f.TreeParams)
				if err := t.Train(source, dataset, start, trainCount); err != nil {
					errMu.Lock()
					if trainErr == nil {
						trainErr = err
					}
					errMu.Unlock()
					return
				}
				f.Trees[treeIndex] = t
			}(treeIndex, start, i)
		}
		wg.Wait()

		if trainErr != nil {
			return trainErr
		}
	}

	return nil
}

// ClassifyImage produces a label map the same size as input: each pixel
// is labeled with the dominant class of the histogram formed by summing
// every tree's vote for that pixel.
func (f *Forest) ClassifyImage(input *imageset.Image) (*imageset.Image, error) {
	output := imageset.NewImage(input.Width, input.Height)
	if err := f.ClassifyImageInto(input, output); err != nil {
		return nil, err
	}
	return output, nil
}

// ClassifyImageInto writes into output, which must already be sized to
// match input. It exists alongside ClassifyImage for callers reusing a
// label map buffer across frames.
func (f *Forest) ClassifyImageInto(input, output *imageset.Image) error {
	if input.Width != output.Width || input.Height != output.Height {
		return rferr.New(rferr.InvalidArgument, "invalid parameter specified to ClassifyImage")
	}
	if len(f.Trees) == 0 {
		return rferr.New(rferr.InvalidArgument, "decision forest must be trained before it can classify")
	}

	for y := 0; y < input.Height; y++ {
		for x := 0; x < input.Width; x++ {
			result := tree.NewHistogram(f.TreeParams.ClassCount)
			for _, t := range f.Trees {
				vote, err := t.ClassifyPixel(input, x, y)
				if err != nil {
					return err
				}
				result.Merge(vote)
			}
			output.Set(x, y, uint8(result.DominantClass()))
		}
	}

	return nil
}

// Classify returns the single dominant class for the whole image. Each
// pixel's per-tree votes are first merged and reduced to a dominant
// class, then those per-pixel classes are accumulated into one
// image-level histogram. The background class is cleared from that
// histogram before taking its dominant class, since background pixels
// usually dominate a typical image.
func (f *Forest) Classify(input *imageset.Image) (uint8, error) {
	if input == nil {
		return BackgroundLabel, rferr.New(rferr.InvalidArgument, "invalid parameter specified to Classify")
	}
	if len(f.Trees) == 0 {
		return BackgroundLabel, rferr.New(rferr.InvalidArgument, "decision forest must be trained before it can classify")
	}

	imageResult := tree.NewHistogram(f.TreeParams.ClassCount)

	for y := 0; y < input.Height; y++ {
		for x := 0; x < input.Width; x++ {
			pixelResult := tree.NewHistogram(f.TreeParams.ClassCount)
			for _, t := range f.Trees {
				vote, err := t.ClassifyPixel(input, x, y)
				if err != nil {
					return BackgroundLabel, err
				}
				pixelResult.Merge(vote)
			}
			imageResult.Increment(pixelResult.DominantClass())
		}
	}

	imageResult.ClearClass(BackgroundLabel)

	return uint8(imageResult.DominantClass()), nil
}

// Save writes the forest to path in a fixed-width binary layout: forest
// params, a forest-level tree params copy, then every tree in turn, each
// writing its own per-tree params copy ahead of its breadth-first node
// stream. There is no framing, version tag, or checksum — the format is
// positional, matching the reference layout this package's persistence
// is modeled on.
func (f *Forest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to create forest file", err)
	}
	defer file.Close()

	if err := binary.Write(file, binary.LittleEndian, f.ForestParams); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write decision forest params to disk", err)
	}
	if err := tree.WriteParams(file, f.TreeParams); err != nil {
		return err
	}

	for _, t := range f.Trees {
		if err := tree.SaveTree(file, t); err != nil {
			return err
		}
	}

	return nil
}

// Load reads a forest previously written by Save. f.TreeParams is taken
// from the first loaded tree's own per-tree copy, since that copy (not
// the forest-level one preceding it) is what each tree was actually
// trained with.
func Load(path string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to open forest file", err)
	}
	defer file.Close()

	f := &Forest{}

	if err := binary.Read(file, binary.LittleEndian, &f.ForestParams); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read decision forest params from disk", err)
	}
	if _, err := tree.ReadParams(file); err != nil {
		return nil, err
	}

	f.Trees = make([]*tree.Tree, f.ForestParams.TotalTreeCount)
	for i := range f.Trees {
		t, err := tree.LoadTree(file)
		if err != nil {
			return nil, err
		}
		f.Trees[i] = t
	}

	if len(f.Trees) > 0 {
		f.TreeParams = f.Trees[0].Params
	}

	return f, nil
}

