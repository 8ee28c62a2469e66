// Package trash holds removed duplicates until they are purged.
//
// Files are grouped into one directory per day so that CleanStale can drop
// whole days once they pass the configured retention.
package trash
