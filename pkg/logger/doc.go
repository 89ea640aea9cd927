// Package logger provides structured logging for the album downloader.
//
// It wraps zerolog behind the Logger interface. Console output goes to
// stderr with colored level tags so it never interleaves with the progress
// bar on stdout; an optional log file receives JSON lines.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "downloader")
//	log.InfoWithFields("Album ready", map[string]interface{}{
//	    "album_id": "10",
//	    "images":   2,
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to drop them.
package logger
