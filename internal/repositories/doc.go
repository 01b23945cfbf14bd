// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Durable records support soft deletes via deleted_at timestamps and exclude deleted rows from queries by default.
// Cache rows are the exception: they are removed outright so their unique keys free up for re-insertion.
//
// Key Implementations:
//   - [ResolutionRepository] : Cached track resolutions keyed by normalized title/artist
//   - [SnapshotRepository] : Playlist listings saved per service for offline inspection
//   - [AccountRepository] : Authorized profiles recorded when an OAuth flow completes
//   - [ConversionRepository] : Conversion run history with status tracking
//
// The [ResolutionCacheAdapter] bridges [ResolutionRepository] into the converter's
// ResolutionStore interface so resolutions persist across runs without the pipeline
// knowing about SQL.
//
// Sequence numbers provide stable, human-readable ordering (e.g., snapshot #42, conversion #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
