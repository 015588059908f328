// Package tasks turns a download request into cached audio files.
//
// # Flow
//
// [Orchestrator.Run] walks a request through its states:
//
//  1. Resolving : [Resolver] extracts the track id from the url, or searches for the title
//  2. Fetching : a backend session is opened with the caller's token and every encoded variant is loaded
//  3. Persisting : [Select] assigns variants to the best, medium and low tiers and each
//     assignment is written by the [Persister] pool
//
// and ends in CompletedOk, CompletedErr or TimedOut.
//
// # Selection
//
// Each tier has a preference list that falls back to the other tiers' lists.
// Tiers are filled in order and a format claimed by one tier is never offered to
// another, so a single request writes at most three distinct formats.
//
// # Persistence
//
// Artifacts land at <root>/<hash>/spotify/<tier>.<ext>. All selected tiers are
// written concurrently and awaited. A request succeeds when at least one tier was
// written; Outcome.Partial is set when some tier failed.
//
// # Failure Isolation
//
// A request runs on its own goroutine under a deadline. Panics are recovered into
// [shared.ErrInternalFault] and never reach other requests.
//
// # Progress Reporting
//
// Every transition emits a [ProgressUpdate] on an optional channel. Sends use
// select with default so a slow reader never blocks a download.
package tasks
