// Package livejournal talks to the photo hosting side of LiveJournal.
//
// ParseTarget classifies a journal or album URL. Client calls the
// JSON-RPC endpoint with an established Session to list albums
// (GetAlbums) and their records (GetRecords). Record names are
// normalized so that every file in an album gets a distinct name of the
// form <index>__<name>.<ext>.
package livejournal
