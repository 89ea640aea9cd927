package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"ljdl/pkg/config"
	"ljdl/pkg/logger"
	"ljdl/pkg/scraper"
	"ljdl/pkg/ui"
)

var (
	// Version information, set at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ljdl [flags] <URL>",
		Short: "Download photo albums from LiveJournal",
		Long: `ljdl downloads the photo albums of a LiveJournal user.

Pass a journal URL to download every album, or an album URL to download a
single one. Each album is saved into its own folder and a job list with
every image URL is written next to them.`,
		Example: `  # Download every album of a journal into the current directory
  ljdl https://alice.livejournal.com/

  # Download one album into ./photos with 3 parallel transfers
  ljdl -d ./photos --concurrent 3 https://alice.livejournal.com/photo/album/42

  # Keep going when some images fail
  ljdl --continue-on-error https://alice.livejournal.com/photo/`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDownload,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default is ./.ljdl.yaml or ~/.config/ljdl/config.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error, disabled)")
	pf.BoolP("quiet", "q", false, "suppress all output except errors")

	f := cmd.Flags()
	f.StringP("directory", "d", "", "destination directory (default: current directory)")
	f.Int("concurrent", config.DefaultConcurrentDownloads, "number of simultaneous image downloads")
	f.Bool("continue-on-error", false, "download remaining images when one fails")
	f.Int("rate-limit", 0, "maximum requests per minute, 0 for no limit")
	f.String("user-agent", "", "User-Agent header (default: a random browser)")
	f.Bool("no-progress", false, "disable the progress bar")

	cmd.SetVersionTemplate(`ljdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newConfigCmd())
	return cmd
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		ui.NewConsole(os.Stdout, os.Stderr, false).Error(err)
		return 1
	}
	return 0
}

// collectFlags returns the flags set on the command line keyed the way
// config.MergeCommandLineFlags expects them
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range []string{"directory", "user-agent", "log-level"} {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			flags[name], _ = fs.GetString(name)
		}
	}
	for _, name := range []string{"concurrent", "rate-limit"} {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			flags[name], _ = fs.GetInt(name)
		}
	}
	for _, name := range []string{"continue-on-error", "quiet"} {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			flags[name], _ = fs.GetBool(name)
		}
	}
	if fs.Lookup("no-progress") != nil && fs.Changed("no-progress") {
		noProgress, _ := fs.GetBool("no-progress")
		flags["progress"] = !noProgress
	}

	return flags
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	return config.Load(configFile, collectFlags(cmd))
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()
	logger.WithField("version", version).Info("ljdl starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := ui.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output.Quiet)
	s := scraper.New(cfg, log, console)

	summary, err := s.Run(ctx, args[0])
	if err != nil {
		logger.WithError(err).Error("Download failed")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"images": summary.Images,
		"albums": summary.Albums,
	}).Info("Download completed")
	return nil
}
