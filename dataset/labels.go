package main

import (
	"fmt"
	"os"

	"github.com/phambaophuc/sign-recognition/internal/dataset"
	"github.com/phambaophuc/sign-recognition/internal/services/classifier"
	"github.com/urfave/cli/v2"
)

var labelsOpts struct {
	input  string
	output string
}

var labelsCommand = &cli.Command{
	Name:   "labels",
	Usage:  "Print the class names of a dataset in model output order.",
	Action: labelsCmd,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "dataset directory with one folder per class",
			Required:    true,
			Destination: &labelsOpts.input,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write the labels to this file instead of stdout",
			Destination: &labelsOpts.output,
		},
	},
}

func labelsCmd(cc *cli.Context) error {
	classes, _, err := dataset.Scan(labelsOpts.input)
	if err != nil {
		return err
	}

	if labelsOpts.output == "" {
		return classifier.Labels(classes).Write(cc.App.Writer)
	}

	f, err := os.Create(labelsOpts.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", labelsOpts.output, err)
	}
	defer f.Close()

	if err := classifier.Labels(classes).Write(f); err != nil {
		return err
	}
	return f.Close()
}
