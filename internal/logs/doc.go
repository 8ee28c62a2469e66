// Package logs reads the tunekeep log file for `tunekeep logs`.
//
// Last returns the trailing lines of a file with bounded memory, and Follow
// polls for lines appended after an offset until its context is cancelled.
// A truncated or rotated file is read again from the start.
package logs
