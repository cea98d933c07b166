// Package core runs the phone number and workbook unlock tools.
//
// It sits between the transport layers (web handlers, CLI) and the
// domain packages: [phone] for the split/clean/format/validate pipeline,
// [sheet] for reading and writing tables, and [unlock] for decrypting
// workbooks. Every run goes through the same lifecycle:
//
//  1. Acquire a slot from the [JobLimiter]
//  2. Read and process the uploaded data under the configured timeout
//  3. Cache the run under a fresh UUID so its files can be downloaded
//  4. Record the run in the history store and update metrics
//
// Cached runs expire after the configured TTL. [Service.StartSweeper]
// removes them in the background.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Codes are grouped by category:
//
//   - FILE001-FILE007: upload and file format problems
//   - VAL001-VAL002: table shape and option problems
//   - UNL001-UNL003: workbook decryption problems
//   - RUN001-RUN005: capacity, expiry, cancellation and timeouts
package core
