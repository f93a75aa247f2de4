// Package tinygo provides a PS/2 host HAL implementation for
// microcontrollers using TinyGo's machine package.
//
// Build with the tinygo toolchain for a target whose machine.Pin supports
// SetInterrupt with machine.PinToggle (RP2040, nRF52, SAMD21/51 and
// others):
//
//	tinygo flash -target=pico ./examples/tinygo-hal/keyboard
//
// Edge handlers run in interrupt context, and so do the host's [Callback]
// and ErrorHandler when driven by this HAL. Under tinygo the engine masks
// interrupts for its own critical sections instead of taking a mutex,
// keeps the edge path free of logging, and queues received bytes in a
// fixed ring; a byte arriving at a full ring is dropped and counted in
// Stats.Overflows.
//
// PS/2 devices are 5V parts. Use a level shifter or open-drain buffer on
// both lines when the microcontroller is not 5V tolerant.
package tinygo
