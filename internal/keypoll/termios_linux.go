package keypoll

import "golang.org/x/sys/unix"

const (
	ioctlGetTermios     = unix.TCGETS
	ioctlSetTermios     = unix.TCSETS
	ioctlRestoreTermios = unix.TCSETSW
)
