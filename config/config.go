// Package config centralizes the CLI-configurable forest/tree parameters
// and I/O paths, following the teacher's flag-driven configuration style
// but on a modern, module-friendly flag library. Flags are parsed with
// pflag; an optional YAML file supplies the same values (all but the
// --train/--verify mode, --config and --profile) and is merged under the
// flags via viper, so a training run can be reproduced from a
// checked-in config file instead of a long command line.
package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ramenhut/simple-rdf/forest"
	"github.com/ramenhut/simple-rdf/imageset"
	"github.com/ramenhut/simple-rdf/rferr"
	"github.com/ramenhut/simple-rdf/tree"
)

// Config holds every value needed to drive a training or verification
// run: the forest/tree parameters, dataset paths, and runtime knobs.
type Config struct {
	Train  bool
	Verify bool
	// Path is the forest file to write (training) or read (verification).
	Path string

	ConfigFile string

	TrainImages string
	TrainLabels string
	TestImages  string
	TestLabels  string

	Trees    uint32
	TrainPct uint32

	MaxDepth   int
	Trials     int
	Radius     int
	MinSamples int

	Workers  int
	JSONLogs bool
	LogFile  string
	Profile  bool

	DumpBitmap string
}

// Parse reads args (normally os.Args[1:]) and returns a fully populated
// Config. Flag defaults match the reference training configuration; a
// --config file, if given, is merged under the flags via viper, so a
// flag that is explicitly passed on the command line still wins.
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("rdf", pflag.ContinueOnError)

	train := fs.Bool("train", false, "train a new forest and write it to the given path")
	verify := fs.Bool("verify", false, "load a forest from the given path and report its accuracy")
	configFile := fs.String("config", "", "optional YAML file supplying these same flags, except train, verify, config and profile")

	trainImages := fs.String("train-images", "train-images.idx3-ubyte", "path to the training image IDX file")
	trainLabels := fs.String("train-labels", "train-labels.idx1-ubyte", "path to the training label IDX file")
	testImages := fs.String("test-images", "t10k-images.idx3-ubyte", "path to the test image IDX file")
	testLabels := fs.String("test-labels", "t10k-labels.idx1-ubyte", "path to the test label IDX file")

	trees := fs.Uint32("trees", 18, "number of trees in the forest")
	trainPct := fs.Uint32("train-pct", 80, "percentage of the training set each tree samples from")

	maxDepth := fs.Int("max-depth", 20, "maximum depth of any tree")
	trials := fs.Int("trials", 1200, "split function trials per node")
	radius := fs.Int("radius", 20, "maximum pixel offset considered by a split function")
	minSamples := fs.Int("min-samples", 2, "minimum samples required to split a node")

	workers := fs.Int("workers", 0, "worker count per training pass, 0 uses GOMAXPROCS")
	jsonLogs := fs.Bool("json-logs", false, "emit logs as JSON instead of the human-readable console format")
	logFile := fs.String("log-file", "", "also write logs to this path, rotated via lumberjack")
	profileFlag := fs.Bool("profile", false, "cpu profile the run")

	dumpBitmap := fs.String("dump-bitmap", "", "write the first verified image's label map to this path as a BMP")

	if err := fs.Parse(args); err != nil {
		return nil, rferr.Wrap(rferr.InvalidArgument, "failed to parse command line flags", err)
	}

	cfg := &Config{
		Train:       *train,
		Verify:      *verify,
		ConfigFile:  *configFile,
		TrainImages: *trainImages,
		TrainLabels: *trainLabels,
		TestImages:  *testImages,
		TestLabels:  *testLabels,
		Trees:       *trees,
		TrainPct:    *trainPct,
		MaxDepth:    *maxDepth,
		Trials:      *trials,
		Radius:      *radius,
		MinSamples:  *minSamples,
		Workers:     *workers,
		JSONLogs:    *jsonLogs,
		LogFile:     *logFile,
		Profile:     *profileFlag,
		DumpBitmap:  *dumpBitmap,
	}

	if rest := fs.Args(); len(rest) > 0 {
		cfg.Path = rest[0]
	}

	if cfg.ConfigFile != "" {
		if err := mergeFile(cfg, fs); err != nil {
			return nil, err
		}
	}

	if !cfg.Train && !cfg.Verify {
		return nil, rferr.New(rferr.InvalidArgument, "one of --train or --verify is required")
	}
	if cfg.Path == "" {
		return nil, rferr.New(rferr.InvalidArgument, "a forest file path argument is required")
	}

	return cfg, nil
}

// mergeFile merges values from cfg.ConfigFile under any flag that the
// caller did not explicitly pass: the flag set is bound into viper, then
// each key the file sets is copied into cfg unless its flag was changed.
func mergeFile(cfg *Config, fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetConfigFile(cfg.ConfigFile)

	if err := v.ReadInConfig(); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to read config file", err)
	}

	if err := v.BindPFlags(fs); err != nil {
		return rferr.Wrap(rferr.InvalidArgument, "failed to bind flags to config file", err)
	}

	if v.IsSet("train-images") && !fs.Changed("train-images") {
		cfg.TrainImages = v.GetString("train-images")
	}
	if v.IsSet("train-labels") && !fs.Changed("train-labels") {
		cfg.TrainLabels = v.GetString("train-labels")
	}
	if v.IsSet("test-images") && !fs.Changed("test-images") {
		cfg.TestImages = v.GetString("test-images")
	}
	if v.IsSet("test-labels") && !fs.Changed("test-labels") {
		cfg.TestLabels = v.GetString("test-labels")
	}
	if v.IsSet("trees") && !fs.Changed("trees") {
		cfg.Trees = v.GetUint32("trees")
	}
	if v.IsSet("train-pct") && !fs.Changed("train-pct") {
		cfg.TrainPct = v.GetUint32("train-pct")
	}
	if v.IsSet("max-depth") && !fs.Changed("max-depth") {
		cfg.MaxDepth = v.GetInt("max-depth")
	}
	if v.IsSet("trials") && !fs.Changed("trials") {
		cfg.Trials = v.GetInt("trials")
	}
	if v.IsSet("radius") && !fs.Changed("radius") {
		cfg.Radius = v.GetInt("radius")
	}
	if v.IsSet("min-samples") && !fs.Changed("min-samples") {
		cfg.MinSamples = v.GetInt("min-samples")
	}
	if v.IsSet("workers") && !fs.Changed("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("json-logs") && !fs.Changed("json-logs") {
		cfg.JSONLogs = v.GetBool("json-logs")
	}
	if v.IsSet("log-file") && !fs.Changed("log-file") {
		cfg.LogFile = v.GetString("log-file")
	}
	if v.IsSet("dump-bitmap") && !fs.Changed("dump-bitmap") {
		cfg.DumpBitmap = v.GetString("dump-bitmap")
	}

	return nil
}

// ForestParams derives the forest.Params this config describes.
func (c *Config) ForestParams() forest.Params {
	return forest.Params{
		TotalTreeCount:         c.Trees,
		TreeTrainingPercentage: c.TrainPct,
	}
}

// TreeParams derives the tree.Params this config describes.
func (c *Config) TreeParams() tree.Params {
	return tree.Params{
		MaxTreeDepth:   c.MaxDepth,
		NodeTrialCount: c.Trials,
		ClassCount:     imageset.ClassCount,
		SearchRadius:   c.Radius,
		MinSampleCount: c.MinSamples,
	}
}
