// Package repositories implements SQLite persistence for the request ledger.
//
// [JobRepository] implements models.Repository[*models.DownloadJob]: one row per
// download with its resolved track, persisted tiers, and terminal state. Rows are
// soft deleted via deleted_at and excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (e.g., job #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
