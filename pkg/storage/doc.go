// Package storage manages the destination directory.
//
// NewManager validates the destination once at startup. Album folders
// follow <prefix>_<username>_<album id>__<album name>, and every file is
// written to a temporary name in the same folder and renamed into place,
// so an interrupted run never leaves a truncated image behind.
package storage
