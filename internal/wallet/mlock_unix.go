//go:build !windows

package wallet

import (
	"golang.org/x/sys/unix"
)

// mlock locks data into RAM. It reports false when the OS refuses, for example
// when RLIMIT_MEMLOCK is exhausted.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return unix.Mlock(data) == nil
}

func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Munlock(data)
}
