//go:build !linux && !darwin

package keypoll

// Terminal is unavailable on this platform; Open always falls back to Reader.
type Terminal struct{}

// OpenTerminal always fails on this platform.
func OpenTerminal(int) (*Terminal, error) {
	return nil, errUnsupported
}

func (*Terminal) Poll() (byte, bool) { return 0, false }

func (*Terminal) Close() error { return nil }
