// Package session implements the device session: the public facade over one
// LCD panel and the correlation machinery beneath it.
//
// # Session Lifecycle
//
// Open takes exclusive ownership of a transport, eagerly loads the firmware
// info and capability feature reports (tolerating failure: the accessors
// just return nil), and starts a background listener goroutine that runs
// until Close.
//
// # Correlation
//
// The listener continuously performs bounded-timeout reads, decodes frames,
// parses responses, and matches each deliverable response to the pending
// request whose sequence number its AckNumber answers (ack = seq + 1).
// Matched or not, every response is also published on the Events channel
// for observers.
//
// SendAndAwait registers a pending entry keyed by sequence number, writes
// the command frame, and parks the calling goroutine until the match
// arrives or the deadline passes. Many calls may be outstanding at once;
// the listener never blocks on a waiter.
//
// Failure containment: malformed frames are dropped, transport read errors
// are retried with exponential backoff, and a timed-out request surfaces as
// a typed error after its registry entry is removed. Nothing a device sends
// can destabilize the listener loop.
//
// # Workflows
//
// Beyond single-command operations (brightness, rotation, sleep display,
// keep-alive timeout, SKU color, serial number, reboot, factory reset), the
// session composes multi-step workflows:
//
//   - PushMedia: announce ("transport") -> chunked file transfer ->
//     confirm ("transported" with MD5). Specializations cover backgrounds,
//     OSD overlays, powerup logos, firmware upgrades and suspend slots.
//   - Suspend mode: enter by disabling real-time display, populate up to
//     the device-reported slot count, exit by clearing all suspend media.
//
// A workflow step's failure aborts the workflow; callers re-invoke it whole.
//
// # Concurrency Model
//
// One listener goroutine per session; callers interact with it only through
// the mutex-guarded pending registry and the buffered event channel. Report
// writes are serialized so command frames and transfer blocks never
// interleave on the wire. Close stops the listener within one poll interval
// and then closes the transport; in-flight awaits time out on their own.
package session
