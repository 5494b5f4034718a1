// Package dataset prepares labelled hand sign images for training and
// evaluates trained models against them.
//
// A dataset is a directory with one subdirectory per class:
//
//	data/
//	  A/ img001.jpg img002.jpg ...
//	  B/ ...
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// Sample is one labelled image file.
type Sample struct {
	Class string
	Path  string
}

// Scan lists the classes under dir in sorted order and the image files in
// each. Loose files in dir and non-image files in class directories are
// ignored.
func Scan(dir string) ([]string, []Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dataset dir: %w", err)
	}

	var classes []string
	var samples []Sample
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		class := e.Name()

		files, err := os.ReadDir(filepath.Join(dir, class))
		if err != nil {
			return nil, nil, fmt.Errorf("read class %s: %w", class, err)
		}

		classes = append(classes, class)
		for _, f := range files {
			if f.IsDir() || !imageExts[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			samples = append(samples, Sample{Class: class, Path: filepath.Join(dir, class, f.Name())})
		}
	}

	if len(classes) == 0 {
		return nil, nil, fmt.Errorf("no class directories in %s", dir)
	}

	sort.Strings(classes)
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Class != samples[j].Class {
			return samples[i].Class < samples[j].Class
		}
		return samples[i].Path < samples[j].Path
	})
	return classes, samples, nil
}
