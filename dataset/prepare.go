package main

import (
	"fmt"

	"github.com/phambaophuc/sign-recognition/internal/dataset"
	"github.com/phambaophuc/sign-recognition/internal/services/cropper"
	"github.com/phambaophuc/sign-recognition/internal/services/detector"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var prepareOpts struct {
	input         string
	output        string
	size          int
	testRatio     float64
	seed          int64
	crop          bool
	padding       int
	detectorCmd   cli.StringSlice
	minConfidence float64
}

var prepareCommand = &cli.Command{
	Name:   "prepare",
	Usage:  "Resize (and optionally hand-crop) a class-per-folder dataset into train and test splits.",
	Action: prepareCmd,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "dataset directory with one folder per class",
			Required:    true,
			Destination: &prepareOpts.input,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "directory to write train/, test/ and class_names.txt to",
			Required:    true,
			Destination: &prepareOpts.output,
		},
		&cli.IntFlag{
			Name:        "size",
			Usage:       "width and height of the prepared images",
			Value:       128,
			Destination: &prepareOpts.size,
		},
		&cli.Float64Flag{
			Name:        "test-ratio",
			Usage:       "fraction of images held out for testing",
			Value:       dataset.DefaultTestRatio,
			Destination: &prepareOpts.testRatio,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "shuffle seed for the train/test split",
			Value:       dataset.DefaultSeed,
			Destination: &prepareOpts.seed,
		},
		&cli.BoolFlag{
			Name:        "crop",
			Usage:       "crop each image to the detected hand before resizing",
			Destination: &prepareOpts.crop,
		},
		&cli.IntFlag{
			Name:        "padding",
			Usage:       "pixels of margin around the detected hand",
			Value:       cropper.DefaultPadding,
			Destination: &prepareOpts.padding,
		},
		&cli.StringSliceFlag{
			Name:        "detector-command",
			Usage:       "command that runs the hand landmark sidecar",
			Value:       cli.NewStringSlice(detector.DefaultConfig().Command...),
			Destination: &prepareOpts.detectorCmd,
		},
		&cli.Float64Flag{
			Name:        "min-confidence",
			Usage:       "minimum hand detection confidence",
			Value:       detector.DefaultConfig().MinConfidence,
			Destination: &prepareOpts.minConfidence,
		},
	}, logFlags...),
}

func prepareCmd(cc *cli.Context) error {
	if prepareOpts.size <= 0 {
		return fmt.Errorf("--size must be positive")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	p := &dataset.Preparer{
		Size:      prepareOpts.size,
		TestRatio: prepareOpts.testRatio,
		Seed:      prepareOpts.seed,
		Logger:    logger,
	}

	if prepareOpts.crop {
		det, err := detector.NewMediaPipeDetector(detector.Config{
			Command:       prepareOpts.detectorCmd.Value(),
			MaxHands:      1,
			MinConfidence: prepareOpts.minConfidence,
		}, logger)
		if err != nil {
			return fmt.Errorf("start hand detector: %w", err)
		}
		defer det.Close()

		p.Detector = det
		p.Cropper = cropper.New(prepareOpts.padding)
	}

	report, err := p.Prepare(cc.Context, prepareOpts.input, prepareOpts.output)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	logger.Info("Done",
		zap.Strings("classes", report.Classes),
		zap.Int("train", report.Train),
		zap.Int("test", report.Test),
		zap.Int("skipped", report.Skipped))
	return nil
}
