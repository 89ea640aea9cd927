// Package scraper ties the pieces of a run together.
//
// A run classifies the URL, establishes an anonymous session, lists the
// albums of the journal, fetches the records of every album concurrently
// and persists the result as a job list next to the downloads. The
// downloader then saves every record into a folder per album.
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	s := scraper.New(cfg, logger.GetLogger(), ui.Stdio(false))
//	summary, err := s.Run(ctx, "https://alice.livejournal.com/photo/album/42")
//
// Files are laid out as
//
//	<destination>/lj_<user>_<album id>__<album name>/<index>__<file name>
//
// and the job list is written to <destination>/lj_<user>_job_list.json.
package scraper
