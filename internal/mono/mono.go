// Package mono provides a monotonic time source for latency-sensitive
// bookkeeping (send timestamps in reliability.Monitor).
//
// The teacher's cmn/mono links directly against runtime.nanotime via
// go:linkname for a few extra nanoseconds of speed; that trick requires a
// matching Go runtime build and is gated behind a "mono" build tag there.
// This module keeps the same NanoTime() signature so callers are
// unaffected, but uses the portable time.Since against a package-start
// time.Time, which reads Go's monotonic clock.
package mono

import "time"

var start = time.Now()

// NanoTime returns monotonic nanoseconds since package initialization;
// only differences between two values are meaningful.
func NanoTime() int64 { return int64(time.Since(start)) }
