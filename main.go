package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/ramenhut/simple-rdf/bitmap"
	"github.com/ramenhut/simple-rdf/config"
	"github.com/ramenhut/simple-rdf/forest"
	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/logging"
	"github.com/ramenhut/simple-rdf/mnist"
	"github.com/ramenhut/simple-rdf/rng"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Workers)
	}

	if cfg.Profile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	logger, err := logging.New(logging.Options{JSON: cfg.JSONLogs, FilePath: cfg.LogFile})
	if err != nil {
		fatal(err)
	}
	defer logger.Sync()

	if cfg.Train {
		if err := runTrain(cfg, logger); err != nil {
			fatal(err)
		}
		return
	}

	if err := runVerify(cfg, logger); err != nil {
		fatal(err)
	}
}

func runTrain(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("loading training data",
		zap.String("images", cfg.TrainImages),
		zap.String("labels", cfg.TrainLabels))

	dataset, err := mnist.Load(cfg.TrainImages, cfg.TrainLabels)
	if err != nil {
		return err
	}

	f := forest.New(cfg.ForestParams(), cfg.TreeParams())

	logger.Info("training forest",
		zap.Uint32("trees", cfg.Trees),
		zap.Uint32("train_pct", cfg.TrainPct),
		zap.Int("samples", len(dataset)))

	start := time.Now()
	if err := f.Train(dataset, rng.Clock{}); err != nil {
		return err
	}
	logger.Info("training complete", zap.Duration("elapsed", time.Since(start)))

	if err := f.Save(cfg.Path); err != nil {
		return err
	}
	logger.Info("forest saved", zap.String("path", cfg.Path))

	return nil
}

func runVerify(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("loading forest", zap.String("path", cfg.Path))

	f, err := forest.Load(cfg.Path)
	if err != nil {
		return err
	}

	logger.Info("loading test data",
		zap.String("images", cfg.TestImages),
		zap.String("labels", cfg.TestLabels))

	dataset, err := mnist.Load(cfg.TestImages, cfg.TestLabels)
	if err != nil {
		return err
	}

	correct := 0
	var firstLabelMap *imageset.Image

	for i, sample := range dataset {
		predicted, err := f.Classify(sample.Image)
		if err != nil {
			return err
		}
		if predicted == sample.Codex {
			correct++
		}

		if i == 0 {
			labelMap, err := f.ClassifyImage(sample.Image)
			if err != nil {
				return err
			}
			firstLabelMap = labelMap
		}
	}

	accuracy := float64(correct) / float64(len(dataset))
	logger.Info("verification complete",
		zap.Int("samples", len(dataset)),
		zap.Int("correct", correct),
		zap.Float64("accuracy", accuracy))

	if cfg.DumpBitmap != "" && firstLabelMap != nil {
		if err := bitmap.Save(cfg.DumpBitmap, firstLabelMap); err != nil {
			return err
		}
		logger.Info("wrote label map bitmap", zap.String("path", cfg.DumpBitmap))
	}

	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
