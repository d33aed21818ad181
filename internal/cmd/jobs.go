package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/pkg/output"
)

var jobsOutputFormat string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List tracked jobs",
	Long: `List every tracked job, newest first, refreshing non-terminal
statuses from the scheduler in one batched round.

Example:
  jobsherpa jobs
  jobsherpa jobs --output jsonl`,
	RunE: runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().StringVarP(&jobsOutputFormat, "output", "o", "table", "Output format (table|jsonl)")
}

func runJobs(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}

	if err := rt.tracker.CheckAndUpdateAll(cmd.Context()); err != nil {
		// Stale statuses are still worth listing.
		rt.logger.Warn("status refresh failed, listing cached records", zap.Error(err))
	}
	records := rt.tracker.All()

	switch jobsOutputFormat {
	case "jsonl":
		schedulerName := "slurm"
		if rt.system != nil && rt.system.Scheduler != "" {
			schedulerName = rt.system.Scheduler
		}
		w := output.NewJSONLWriter(os.Stdout, schedulerName)
		for _, rec := range records {
			sr := &output.StatusRecord{
				JobID:     rec.JobID,
				JobName:   rec.JobName,
				Status:    string(rec.Status),
				StartTime: rec.StartTime,
			}
			if rec.Result != nil {
				sr.Result = *rec.Result
			}
			if err := w.WriteStatus(sr); err != nil {
				return err
			}
		}
		return nil
	case "table":
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "JOB ID\tNAME\tSTATUS\tSUBMITTED\tRESULT")
		for _, rec := range records {
			result := ""
			if rec.Result != nil {
				result = *rec.Result
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				rec.JobID, rec.JobName, rec.Status,
				rec.StartTime.Format("2006-01-02 15:04:05"), result)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q (table|jsonl)", jobsOutputFormat)
	}
}
