package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"reframe/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			renderDaemonStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func renderDaemonStatus(out io.Writer, status api.DaemonStatus) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusError
	runningMsg := "stopped"
	if status.Running {
		runningKind = statusOK
		runningMsg = fmt.Sprintf("pid %d", status.PID)
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningMsg, colorize))
	fmt.Fprintln(out, renderStatusLine("Lanes", statusInfo, fmt.Sprintf("%d", status.Workflow.Lanes), colorize))
	if status.Workflow.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, dep := range status.Dependencies {
		kind := statusOK
		message := dep.Command
		if !dep.Available {
			kind = statusError
			message = dep.Detail
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Stages", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, health := range status.Workflow.StageHealth {
		kind := statusOK
		message := ""
		if !health.Ready {
			kind = statusError
			message = health.Detail
		}
		fmt.Fprintln(out, renderStatusLine(displayStatus(health.Name), kind, message, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	stats := status.Workflow.QueueStats
	fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", stats.Total), colorize))
	fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", stats.Pending), colorize))
	fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", stats.Processing), colorize))
	failedKind := statusInfo
	if stats.Failed > 0 {
		failedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", stats.Failed), colorize))
	reviewKind := statusInfo
	if stats.Review > 0 {
		reviewKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Review", reviewKind, fmt.Sprintf("%d", stats.Review), colorize))
	fmt.Fprintln(out, renderStatusLine("Completed", statusInfo, fmt.Sprintf("%d", stats.Completed), colorize))

	if status.Workflow.LastJob != nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Last job", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprint(out, renderJobDetail(*status.Workflow.LastJob))
	}
}
