//go:build linux

package logger

import (
	"syscall"
	"unsafe"
)

// ioctlReadTermios is TCGETS, the terminal-attributes ioctl on Linux.
const ioctlReadTermios = 0x5401

// isTerminal reports whether fd refers to a terminal.
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, errno := syscall.Syscall6(
		syscall.SYS_IOCTL,
		fd,
		ioctlReadTermios,
		uintptr(unsafe.Pointer(&termios)),
		0, 0, 0,
	)
	return errno == 0
}
