//go:build linux || darwin

package keypoll

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Terminal is a Listener over a terminal file descriptor in raw-ish mode.
type Terminal struct {
	fd    int
	saved unix.Termios

	closeOnce sync.Once
	closeErr  error
}

// OpenTerminal saves the line discipline of fd and switches it to
// non-canonical, no-echo mode with VMIN=0 and VTIME=0.
func OpenTerminal(fd int) (*Terminal, error) {
	saved, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("read terminal attributes: %w", err)
	}
	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, fmt.Errorf("set terminal attributes: %w", err)
	}
	return &Terminal{fd: fd, saved: *saved}, nil
}

func (t *Terminal) Poll() (byte, bool) {
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return 0, false
	}
	var buf [1]byte
	read, err := unix.Read(t.fd, buf[:])
	if err != nil || read != 1 {
		return 0, false
	}
	return buf[0], true
}

// Close restores the saved line discipline after pending output drains.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() {
		saved := t.saved
		if err := unix.IoctlSetTermios(t.fd, ioctlRestoreTermios, &saved); err != nil {
			t.closeErr = fmt.Errorf("restore terminal attributes: %w", err)
		}
	})
	return t.closeErr
}
