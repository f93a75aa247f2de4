// Package hal defines the Hardware Abstraction Layer interface for the PS/2
// host engine.
//
// The HAL provides a platform-agnostic interface between the host engine
// and the two PS/2 signal lines. The engine implements all protocol logic
// (framing, parity, request-to-send, acknowledgment); the HAL only reads
// and drives lines and reports clock edges.
//
// # Design Principles
//
// The HAL is designed to be:
//   - Minimal: level get/set, edge registration, a microsecond delay
//   - Open collector: [pkg.Low] drives a line, [pkg.High] releases it
//   - Edge driven: the engine never polls; every protocol step is a
//     reaction to a clock edge reported through [EdgeHandler]
//
// # Implementations
//
//   - [github.com/ardnew/softps2/host/hal/sim]: simulated wired-AND bus for
//     tests and examples, paired with the device emulator
//   - [github.com/ardnew/softps2/host/hal/periph]: any periph.io gpio.PinIO
//   - [github.com/ardnew/softps2/host/hal/linux]: Linux GPIO character
//     device via gpiod
//   - [github.com/ardnew/softps2/host/hal/tinygo]: TinyGo machine.Pin
//
// # Implementing a HAL
//
// To implement a HAL for a new platform:
//  1. Create a type that implements all [HostHAL] methods
//  2. Configure both lines as inputs with pull-ups in Init()
//  3. Emulate open-collector output in SetLevel (drive low, or release)
//  4. Report falling and rising clock edges to handlers registered with
//     OnEdge, in the order they occur
//
// The [Handlers] registry helps with step 4.
package hal
