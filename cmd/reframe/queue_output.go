package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reframe/internal/api"
)

var statusTitle = cases.Title(language.Und)

// displayStatus renders a queue status for table output ("pending" -> "Pending").
func displayStatus(status string) string {
	return statusTitle.String(strings.ReplaceAll(strings.TrimSpace(status), "_", " "))
}

func renderJobTable(jobs []api.JobView) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.ID),
			job.VideoURL,
			fmt.Sprintf("%.2f-%.2f", job.Start, job.End),
			displayStatus(job.Status),
			formatProgress(job.Progress),
			job.CreatedAt,
		})
	}
	return renderTable(
		[]string{"ID", "Video", "Window", "Status", "Progress", "Created"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func formatProgress(progress api.JobProgress) string {
	if progress.Stage == "" && progress.Percent == 0 {
		return ""
	}
	if progress.Message != "" {
		return fmt.Sprintf("%3.0f%% %s", progress.Percent, progress.Message)
	}
	return fmt.Sprintf("%3.0f%%", progress.Percent)
}

func renderJobDetail(job api.JobView) string {
	var b strings.Builder
	write := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%-16s %s\n", label+":", value)
	}

	write("ID", fmt.Sprintf("%d", job.ID))
	write("UUID", job.JobUUID)
	write("Batch", job.BatchUUID)
	write("Status", displayStatus(job.Status))
	write("Video", job.VideoURL)
	write("Scenes", job.ScenesURL)
	write("Destination", job.DestinationURL)
	write("Window", fmt.Sprintf("%.2f-%.2f s", job.Start, job.End))
	write("Aspect", job.AspectRatio)
	write("Progress", formatProgress(job.Progress))
	write("Rendered file", job.RenderedFile)
	write("Error", job.ErrorMessage)
	if job.NeedsReview {
		write("Needs review", yesNo(job.NeedsReview))
		write("Review reason", job.ReviewReason)
	}
	write("Created", job.CreatedAt)
	write("Updated", job.UpdatedAt)
	return b.String()
}
