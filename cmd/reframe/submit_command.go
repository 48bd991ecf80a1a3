package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reframe/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		videoURL       string
		scenesURL      string
		destinationURL string
		start          float64
		end            float64
		subtitlesPath  string
		aspectRatio    string
		batchPath      string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an export job to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSubmitRequest(videoURL, scenesURL, destinationURL, start, end, subtitlesPath, aspectRatio, batchPath)
			if err != nil {
				return err
			}

			resp, err := ctx.client().Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.BatchUUID != "" {
				fmt.Fprintf(out, "Queued batch %s with %d jobs\n", resp.BatchUUID, len(resp.Jobs))
			} else if len(resp.Jobs) == 1 {
				fmt.Fprintf(out, "Queued job %d (%s)\n", resp.Jobs[0].ID, resp.Jobs[0].JobUUID)
			}
			if len(resp.Jobs) > 0 {
				fmt.Fprint(out, renderJobTable(resp.Jobs))
				fmt.Fprintln(out)
			}
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
	cmd.Flags().StringVar(&batchPath, "batch", "", "Path to a JSON file with batch export entries")

	return cmd
}

func buildSubmitRequest(videoURL, scenesURL, destinationURL string, start, end float64, subtitlesPath, aspectRatio, batchPath string) (api.SubmitRequest, error) {
	if strings.TrimSpace(batchPath) != "" {
		entries, err := readBatchFile(batchPath)
		if err != nil {
			return api.SubmitRequest{}, err
		}
		return api.SubmitRequest{Task: api.TaskBatchExport, Batch: entries}, nil
	}

	subtitles, err := encodeSubtitles(subtitlesPath)
	if err != nil {
		return api.SubmitRequest{}, err
	}
	return api.SubmitRequest{
		Task: api.TaskExport,
		ExportRequest: api.ExportRequest{
			VideoURL:       videoURL,
			ScenesURL:      scenesURL,
			DestinationURL: destinationURL,
			Start:          start,
			End:            end,
			Subtitles:      subtitles,
			AspectRatio:    aspectRatio,
		},
	}, nil
}

func readBatchFile(path string) ([]api.ExportRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var entries []api.ExportRequest
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, errors.New("batch file contains no entries")
	}
	return entries, nil
}

func encodeSubtitles(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read subtitle document: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
