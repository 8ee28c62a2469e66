// Package fileutil holds the small file operations shared by the organizer
// and duplicate cleanup: verified copies, cross-device moves, collision-free
// names, and directory permission checks.
package fileutil
