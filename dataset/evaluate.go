package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/phambaophuc/sign-recognition/internal/dataset"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier/tflite"
	"github.com/phambaophuc/sign-recognition/internal/services/processor"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var evaluateOpts struct {
	input        string
	model        string
	labels       string
	size         int
	channelOrder string
	threads      int
	jsonOutput   bool
}

var evaluateCommand = &cli.Command{
	Name:   "evaluate",
	Usage:  "Score a TensorFlow Lite model against a prepared test split.",
	Action: evaluateCmd,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "directory with one folder per class, usually <prepared>/test",
			Required:    true,
			Destination: &evaluateOpts.input,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "TensorFlow Lite model file",
			Value:       "ml_model/isl_model.tflite",
			Destination: &evaluateOpts.model,
		},
		&cli.StringFlag{
			Name:        "labels",
			Usage:       "class names file (defaults to class_names.txt next to the input split)",
			Destination: &evaluateOpts.labels,
		},
		&cli.IntFlag{
			Name:        "size",
			Usage:       "model input width and height",
			Value:       processor.DefaultInputSize,
			Destination: &evaluateOpts.size,
		},
		&cli.StringFlag{
			Name:        "channel-order",
			Usage:       "rgb or bgr",
			Value:       string(processor.ChannelsBGR),
			Destination: &evaluateOpts.channelOrder,
		},
		&cli.IntFlag{
			Name:        "threads",
			Usage:       "interpreter threads",
			Value:       2,
			Destination: &evaluateOpts.threads,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the evaluation as JSON",
			Destination: &evaluateOpts.jsonOutput,
		},
	}, logFlags...),
}

func evaluateCmd(cc *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	labelsPath := evaluateOpts.labels
	if labelsPath == "" {
		labelsPath = filepath.Join(filepath.Dir(filepath.Clean(evaluateOpts.input)), dataset.LabelsFile)
	}
	labels, err := classifier.LoadLabels(labelsPath)
	if err != nil {
		return err
	}

	classes, _, err := dataset.Scan(evaluateOpts.input)
	if err != nil {
		return err
	}
	for _, class := range classes {
		if labels.Index(class) < 0 {
			logger.Warn("Class is not in the label file and will always score zero",
				zap.String("class", class), zap.String("labels", labelsPath))
		}
	}

	order, err := processor.ParseChannelOrder(evaluateOpts.channelOrder)
	if err != nil {
		return err
	}
	proc := processor.NewImageProcessor(evaluateOpts.size, order)

	model, err := tflite.Load(evaluateOpts.model, proc.TensorLen(), evaluateOpts.threads)
	if err != nil {
		return err
	}

	cls, err := classifier.New(labels, []classifier.Model{model}, classifier.Options{ApplySoftmax: true}, logger)
	if err != nil {
		model.Close()
		return err
	}
	defer cls.Close()

	eval, err := dataset.Evaluate(cc.Context, evaluateOpts.input, proc, cls, logger)
	if err != nil {
		return err
	}

	if evaluateOpts.jsonOutput {
		enc := json.NewEncoder(cc.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	tw := tabwriter.NewWriter(cc.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tCORRECT\tTOTAL\tACCURACY")
	for _, c := range eval.Classes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", c.Class, c.Correct, c.Total, 100*c.Accuracy())
	}
	fmt.Fprintf(tw, "all\t%d\t%d\t%.1f%%\n", eval.Correct, eval.Total, 100*eval.Accuracy())
	if eval.Skipped > 0 {
		fmt.Fprintf(tw, "skipped\t\t%d\t\n", eval.Skipped)
	}
	return tw.Flush()
}
