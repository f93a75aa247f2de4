// Package linux provides a PS/2 host HAL implementation for Linux using the
// GPIO character device (/dev/gpiochipN).
//
// This HAL uses github.com/warthog618/gpiod for line requests and edge
// events and golang.org/x/sys/unix for the request-to-send delay. It is
// designed for pure Go with no cgo dependencies.
//
// # Requirements
//
// The kernel must provide the GPIO character device uAPI v2 (Linux 5.10 or
// later), since lines are switched between input and output at runtime. The
// user running the application needs read/write access to the chip device
// node, which typically requires either:
//   - Running as root
//   - Membership in a group granted access to /dev/gpiochip* by udev
//
// # Wiring
//
// Connect the PS/2 clock and data lines to two GPIO lines of the same chip.
// The internal pull-ups are enabled, but external 4.7k pull-ups to the
// device's supply are recommended, with level shifting if the device runs
// at 5V.
package linux
