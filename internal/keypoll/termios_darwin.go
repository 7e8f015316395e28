package keypoll

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios     = unix.TIOCGETA
	ioctlSetTermios     = unix.TIOCSETA
	ioctlRestoreTermios = unix.TIOCSETAW
)
