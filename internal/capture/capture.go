package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"plantcam/internal/services"
)

const (
	stageName       = "capture"
	timestampLayout = "20060102_150405"
	outputTailLines = 5
)

// Artifact is an image file produced by one capture.
type Artifact struct {
	Path string
}

// Capturer produces a single still image.
type Capturer interface {
	Capture(ctx context.Context) (Artifact, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Options describes the capture command line.
type Options struct {
	Binary     string
	Dir        string
	FilePrefix string
	Mode       int
	Resolution int
	ExtraArgs  []string
	Timeout    time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithClock overrides the clock used to name output files.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client wraps the camera capture CLI.
type Client struct {
	opts Options
	exec Executor
	now  func() time.Time
}

// New constructs a capture client.
func New(opts Options, extra ...Option) (*Client, error) {
	opts.Binary = strings.TrimSpace(opts.Binary)
	if opts.Binary == "" {
		return nil, errors.New("capture binary required")
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("capture directory required")
	}
	if opts.FilePrefix == "" {
		opts.FilePrefix = "capture"
	}
	client := &Client{
		opts: opts,
		exec: commandExecutor{},
		now:  time.Now,
	}
	for _, opt := range extra {
		opt(client)
	}
	return client, nil
}

// Capture runs the capture utility once and returns the produced image.
func (c *Client) Capture(ctx context.Context) (Artifact, error) {
	if err := os.MkdirAll(c.opts.Dir, 0o755); err != nil {
		return Artifact{}, services.Wrap(services.ErrCapture, stageName, "prepare", "create capture directory", err)
	}

	base := filepath.Join(c.opts.Dir, c.opts.FilePrefix+"_"+c.now().Format(timestampLayout))
	args := c.args(base)

	runCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	tail := newLineTail(outputTailLines)
	if err := c.exec.Run(runCtx, c.opts.Binary, args, tail.add); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Artifact{}, services.Wrap(services.ErrCapture, stageName, c.opts.Binary,
				fmt.Sprintf("no image after %s", c.opts.Timeout), errors.Join(services.ErrTimeout, err))
		}
		return Artifact{}, services.Wrap(services.ErrCapture, stageName, c.opts.Binary, tail.String(), err)
	}

	path, ok := locateOutput(base)
	if !ok {
		return Artifact{}, services.Wrap(services.ErrCapture, stageName, c.opts.Binary,
			fmt.Sprintf("no output file at %s", base), nil)
	}
	return Artifact{Path: path}, nil
}

func (c *Client) args(base string) []string {
	args := []string{
		"--mode=" + strconv.Itoa(c.opts.Mode),
		"--capture-auto",
		"--image-res=" + strconv.Itoa(c.opts.Resolution),
		"--file-name=" + base,
	}
	return append(args, c.opts.ExtraArgs...)
}

// locateOutput accepts the requested name or the name with a .jpg suffix,
// since the capture utility may append the extension itself.
func locateOutput(base string) (string, bool) {
	for _, candidate := range []string{base, base + ".jpg"} {
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

type lineTail struct {
	max   int
	lines []string
}

func newLineTail(max int) *lineTail {
	return &lineTail{max: max}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	if len(t.lines) == 0 {
		return "command failed"
	}
	return strings.Join(t.lines, " | ")
}
