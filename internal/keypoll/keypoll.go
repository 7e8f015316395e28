package keypoll

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"plantcam/internal/logging"
)

// Listener reports operator key presses without blocking.
type Listener interface {
	// Poll returns the next pending byte, if any.
	Poll() (byte, bool)
	// Close releases the input. Calling it more than once is safe.
	Close() error
}

var errUnsupported = errors.New("raw terminal mode not supported on this platform")

// Open returns a Terminal listener when in is an interactive terminal and a
// Reader listener otherwise.
func Open(in *os.File, logger *slog.Logger) (Listener, error) {
	if in == nil {
		return nil, errors.New("keypoll: nil input")
	}
	logger = logging.NewComponentLogger(logger, "keypoll")
	if !isatty.IsTerminal(in.Fd()) {
		logger.Debug("stdin is not a terminal; using reader fallback")
		return NewReader(in), nil
	}
	term, err := OpenTerminal(int(in.Fd()))
	if err != nil {
		logging.WarnWithContext(logger, "raw terminal mode unavailable; using reader fallback", "keypoll_fallback",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the quit key needs Enter to register"),
		)
		return NewReader(in), nil
	}
	return term, nil
}

// bufferSize bounds how many unread keys the Reader keeps.
const bufferSize = 16

// Reader adapts a blocking io.Reader into a Listener.
type Reader struct {
	keys      chan byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewReader starts a goroutine that reads r one byte at a time. The goroutine
// exits when r returns an error or the next key arrives after Close. A nil r
// yields a listener that never reports a key.
func NewReader(r io.Reader) *Reader {
	reader := &Reader{
		keys: make(chan byte, bufferSize),
		done: make(chan struct{}),
	}
	if r != nil {
		go reader.pump(r)
	}
	return reader
}

func (r *Reader) pump(src io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := src.Read(buf)
		if n == 1 {
			select {
			case <-r.done:
				return
			case r.keys <- buf[0]:
			default:
				// Buffer full: the loop is not draining, drop the key.
			}
		}
		if err != nil {
			return
		}
	}
}

func (r *Reader) Poll() (byte, bool) {
	select {
	case <-r.done:
		return 0, false
	default:
	}
	select {
	case key := <-r.keys:
		return key, true
	default:
		return 0, false
	}
}

func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	return nil
}
