//go:build linux

package linux

import (
	"errors"

	"golang.org/x/sys/unix"
)

// nanosleep blocks for ns nanoseconds on CLOCK_MONOTONIC, resuming after
// signal interruptions.
func nanosleep(ns int64) {
	ts := unix.NsecToTimespec(ns)
	for {
		var rem unix.Timespec
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, 0, &ts, &rem)
		if !errors.Is(err, unix.EINTR) {
			return
		}
		ts = rem
	}
}
