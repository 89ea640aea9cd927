package livejournal

import (
	"fmt"
)

const (
	// DefaultDomain is the platform domain user journals live under
	DefaultDomain = "livejournal.com"

	// PhotoPath is the root of a journal's photo section
	PhotoPath = "/photo"

	// JSONRPCVersion is sent in every RPC envelope
	JSONRPCVersion = "2.0"

	// RPC method names
	MethodGetAlbums  = "photo.get_albums"
	MethodGetRecords = "photo.get_records"

	// Envelope ids the web client uses for each method
	getAlbumsID  = 1
	getRecordsID = 7

	// APIAccept is the Accept header of XHR calls made by the photo pages
	APIAccept = "application/json, text/javascript, */*; q=0.01"
)

// AlbumPath returns the photo page path of a single album
func AlbumPath(id ID) string {
	return fmt.Sprintf("%s/album/%s", PhotoPath, id)
}

// PhotoReferer is the Referer of an album listing request
func PhotoReferer(t *Target) string {
	return t.Origin() + PhotoPath
}

// AlbumReferer is the Referer of a record listing request
func AlbumReferer(t *Target, id ID) string {
	return t.Origin() + AlbumPath(id)
}
