package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reframe/internal/dlcache"
	"reframe/internal/logging"
	"reframe/internal/notifications"
	"reframe/internal/queue"
	"reframe/internal/stageexec"
	"reframe/internal/stages/download"
	"reframe/internal/stages/renderer"
	"reframe/internal/stages/upload"
)

// newExportCommand runs the full pipeline locally without a daemon. Useful
// for one-shot exports and debugging stage behavior.
func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		videoURL       string
		scenesURL      string
		destinationURL string
		start          float64
		end            float64
		subtitlesPath  string
		aspectRatio    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run an export locally without the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			req, err := buildSubmitRequest(videoURL, scenesURL, destinationURL, start, end, subtitlesPath, aspectRatio, "")
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			cache, err := dlcache.NewManager(cfg, logger)
			if err != nil {
				logger.Warn("download cache disabled", logging.Error(err))
			}
			defer cache.Close()

			job, err := store.NewExport(cmd.Context(), req.JobRequests()[0])
			if err != nil {
				return fmt.Errorf("enqueue export: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running export job %d locally\n", job.ID)

			notifier := notifications.NewService(cfg)
			stages := []stageexec.Options{
				{
					Logger:     logger,
					Store:      store,
					Notifier:   notifier,
					Handler:    download.New(cfg, logger, cache),
					StageName:  "download",
					Processing: queue.StatusDownloading,
					Done:       queue.StatusDownloaded,
					Job:        job,
				},
				{
					Logger:     logger,
					Store:      store,
					Notifier:   notifier,
					Handler:    renderer.New(cfg, store, logger),
					StageName:  "render",
					Processing: queue.StatusRendering,
					Done:       queue.StatusRendered,
					Job:        job,
				},
				{
					Logger:     logger,
					Store:      store,
					Notifier:   notifier,
					Handler:    upload.New(cfg, logger),
					StageName:  "upload",
					Processing: queue.StatusUploading,
					Done:       queue.StatusCompleted,
					Job:        job,
				},
			}

			for _, opts := range stages {
				if err := stageexec.Run(cmd.Context(), opts); err != nil {
					return fmt.Errorf("%s stage: %w", opts.StageName, err)
				}
				fmt.Fprintf(out, "%s finished (%s)\n", displayStatus(opts.StageName), job.Status)
			}

			if job.Status != queue.StatusCompleted {
				return errors.New("export did not reach completed state")
			}
			fmt.Fprintf(out, "Export uploaded to %s\n", job.DestinationURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoURL, "video", "", "Source video URL")
	cmd.Flags().StringVar(&scenesURL, "scenes", "", "Scene document URL")
	cmd.Flags().StringVar(&destinationURL, "destination", "", "Azure Blob destination URL")
	cmd.Flags().Float64Var(&start, "start", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Clip end in seconds")
	cmd.Flags().StringVar(&subtitlesPath, "subtitles", "", "Path to a subtitle document to burn in")
	cmd.Flags().StringVar(&aspectRatio, "aspect", "", "Target aspect ratio (W:H, default 9:16)")

	return cmd
}
