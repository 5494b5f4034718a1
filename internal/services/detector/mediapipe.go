package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const idleTimeout = 30 * time.Second

// MediaPipeDetector implements Detector using a MediaPipe sidecar process.
// Each request is a 4-byte big-endian length followed by a JPEG frame; the
// sidecar answers with one JSON line.
type MediaPipeDetector struct {
	config    Config
	logger    *zap.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The sidecar is started lazily on first detection.
func NewMediaPipeDetector(config Config, logger *zap.Logger) (*MediaPipeDetector, error) {
	if len(config.Command) == 0 {
		return nil, fmt.Errorf("detector command is empty")
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 1
	}

	return &MediaPipeDetector{
		config: config,
		logger: logger,
	}, nil
}

// FrameError is a failure the sidecar reported for one frame. The sidecar
// stays usable after it.
type FrameError struct {
	Message string
}

func (e *FrameError) Error() string {
	return "landmark sidecar rejected frame: " + e.Message
}

type detectResult struct {
	hands []Hand
	err   error
}

// Detect sends img to the sidecar and returns the hands it reports.
func (d *MediaPipeDetector) Detect(ctx context.Context, img image.Image) ([]Hand, error) {
	var frame bytes.Buffer
	if err := imaging.Encode(&frame, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// The caller may have given up while queued behind another frame.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	stdin, stdout := d.stdin, d.stdout
	done := make(chan detectResult, 1)
	go func() {
		hands, err := d.roundTrip(stdin, stdout, frame.Bytes())
		done <- detectResult{hands: hands, err: err}
	}()

	select {
	case res := <-done:
		var rejected *FrameError
		if errors.As(res.err, &rejected) {
			d.resetIdleTimer()
			return nil, res.err
		}
		if res.err != nil {
			d.logger.Warn("Landmark sidecar failed, restarting", zap.Error(res.err))
			d.kill()
			return nil, res.err
		}
		d.resetIdleTimer()
		return res.hands, nil
	case <-ctx.Done():
		// Waiting on the sidecar closes its stdout, which unblocks roundTrip
		// even if a grandchild still holds the pipe open.
		d.kill()
		<-done
		return nil, ctx.Err()
	}
}

// Close shuts down the sidecar process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) roundTrip(stdin io.Writer, stdout *bufio.Reader, data []byte) ([]Hand, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []Hand `json:"hands"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, &FrameError{Message: response.Error}
	}

	if len(response.Hands) > d.config.MaxHands {
		response.Hands = response.Hands[:d.config.MaxHands]
	}
	return response.Hands, nil
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	args := append([]string{}, d.config.Command[1:]...)
	args = append(args,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
	)
	d.cmd = exec.Command(d.config.Command[0], args...)
	setProcessGroup(d.cmd)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark sidecar: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	d.logger.Info("Landmark sidecar started",
		zap.String("program", d.config.Command[0]),
		zap.Int("pid", d.cmd.Process.Pid))

	return nil
}

func (d *MediaPipeDetector) kill() {
	if !d.started {
		return
	}
	if d.cmd.Process != nil {
		killProcessGroup(d.cmd.Process)
	}
	d.shutdown()
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.logger.Debug("Landmark sidecar exited", zap.Error(err))
		}
	})
}
