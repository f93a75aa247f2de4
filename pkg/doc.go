// Package pkg provides shared utilities for the softps2 PS/2 stack.
//
// This package contains common functionality used by the host engine, the
// device emulator and the HAL adapters, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for framing, transport and configuration errors
//   - The [Line], [Level] and [Edge] types shared by every HAL
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentHost, "byte received", "value", 0x1c)
//
// # Errors
//
// Errors are sentinel values compared with [errors.Is]:
//
//	if errors.Is(err, pkg.ErrNack) {
//	    // The device rejected the frame; the caller may retry.
//	}
//
// The bit codec lives in the [github.com/ardnew/softps2/pkg/frame]
// subpackage.
package pkg
