package classifier

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoLabels is returned when a label file contains no class names.
var ErrNoLabels = errors.New("no class labels")

// Labels is the ordered list of class names; index i names model output i.
type Labels []string

// LoadLabels reads class names from path. The file is either a JSON array of
// strings or plain text with one label per line.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return ParseLabels(data)
}

// ParseLabels parses the formats accepted by LoadLabels.
func ParseLabels(data []byte) (Labels, error) {
	trimmed := bytes.TrimSpace(data)

	var labels Labels
	if bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &labels); err != nil {
			return nil, fmt.Errorf("invalid label list: %w", err)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				labels = append(labels, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read labels: %w", err)
		}
	}

	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return labels, nil
}

// Write stores the labels one per line.
func (l Labels) Write(w io.Writer) error {
	for _, label := range l {
		if _, err := fmt.Fprintln(w, label); err != nil {
			return err
		}
	}
	return nil
}

// Index returns the position of label, or -1.
func (l Labels) Index(label string) int {
	for i, name := range l {
		if name == label {
			return i
		}
	}
	return -1
}
