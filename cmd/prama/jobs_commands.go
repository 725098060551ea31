package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"prama/internal/jobs"
	"prama/internal/textutil"
)

const jobsDetailWidth = 60

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the generation job ledger",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		kind       string
		status     string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := jobs.Filter{Limit: limit}
			if kind != "" {
				parsed, ok := jobs.ParseKind(kind)
				if !ok {
					return fmt.Errorf("unknown job kind %q (valid: talkinghead, tts, studio)", kind)
				}
				filter.Kind = parsed
			}
			if status != "" {
				parsed, ok := jobs.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown job status %q (valid: running, succeeded, failed)", status)
				}
				filter.Status = parsed
			}

			return withStore(ctx, func(store *jobs.Store) error {
				list, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					if list == nil {
						list = []jobs.Job{}
					}
					return writeJSON(cmd, list)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(jobColumns(), jobRows(list, time.Now())))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind (talkinghead, tts, studio)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (running, succeeded, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum jobs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *jobs.Store) error {
				job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, job)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", job.ID)
				fmt.Fprintf(out, "Kind:     %s\n", job.Kind)
				fmt.Fprintf(out, "Status:   %s\n", job.Status)
				fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Duration: %s\n", formatDuration(job.Duration(time.Now())))
				if job.OutputPath != "" {
					fmt.Fprintf(out, "Output:   %s\n", job.OutputPath)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", job.ErrorMessage)
				}
				if len(job.Inputs) > 0 {
					fmt.Fprintf(out, "Inputs:   %s\n", string(job.Inputs))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func withStore(ctx *commandContext, fn func(*jobs.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg.JobsDBPath())
	if err != nil {
		return fmt.Errorf("open job ledger: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func jobColumns() []tableColumn {
	return []tableColumn{
		{Header: "ID"},
		{Header: "Kind"},
		{Header: "Status"},
		{Header: "Created"},
		{Header: "Duration", Align: text.AlignRight},
		{Header: "Output / Error", MaxWidth: jobsDetailWidth},
	}
}

func jobRows(list []jobs.Job, now time.Time) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		detail := job.OutputPath
		if job.Status == jobs.StatusFailed {
			detail = textutil.Truncate(job.ErrorMessage, jobsDetailWidth*2)
		}
		rows = append(rows, []string{
			job.ID,
			string(job.Kind),
			string(job.Status),
			job.CreatedAt.Local().Format(time.DateTime),
			formatDuration(job.Duration(now)),
			detail,
		})
	}
	return rows
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
