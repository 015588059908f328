// Package models defines the domain types for the tiered track cache.
//
// The package contains two categories of types:
//
// 1. Request-scoped values that flow through a single download
//   - [TrackReference] : Canonical track id plus item kind
//   - [FormatLabel] : Closed enumeration of codec/bitrate encodings
//   - [EncodedVariant] and [VariantSet] : Single-consumption byte streams keyed by format
//   - [TierAssignment] : The format a tier claimed, and its stream
//   - [PersistedArtifact] : A file written under the cache root
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [DownloadJob] : One row in the request ledger
//
// Persistent entities implement the Model interface providing ID, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
