// Package catalog persists the music library in SQLite.
//
// The Store owns connection setup (WAL, foreign keys, busy timeout), schema
// initialization with a version guard, busy-retry wrappers, and every query
// the rest of tunekeep needs: track upserts keyed by path, batched ingestion,
// paging, search, partial tag updates, statistics, and the persisted
// duplicate groups produced by the dedupe package.
//
// When you add a column, update schema.sql, trackColumns, scanTrack, and bump
// schemaVersion.
package catalog
