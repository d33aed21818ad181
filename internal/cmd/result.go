package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

var resultCmd = &cobra.Command{
	Use:   "result [job-id]",
	Short: "Show the extracted result of a job",
	Long: `Show the result extracted from a job's output file.

When no result has been extracted yet, the job's status is refreshed and
extraction is retried; scheduler accounting can lag behind output files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResult,
}

func init() {
	rootCmd.AddCommand(resultCmd)
}

func runResult(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}

	jobID := ""
	if len(args) == 1 {
		jobID = args[0]
	} else {
		jobID = rt.tracker.LatestJobID()
	}
	if jobID == "" {
		return fmt.Errorf("no jobs have been submitted yet")
	}

	if result, ok := rt.tracker.Result(jobID); ok {
		fmt.Println(result)
		return nil
	}

	status, ok, err := rt.tracker.GetStatus(cmd.Context(), jobID)
	if err != nil {
		return fmt.Errorf("check status of job %s: %w", jobID, err)
	}
	if !ok {
		return fmt.Errorf("no record of job %s", jobID)
	}
	if result, ok := rt.tracker.Result(jobID); ok {
		fmt.Println(result)
		return nil
	}
	// Output may exist even while accounting still reports the job active.
	if result, ok := rt.tracker.TryParseResult(jobID); ok {
		fmt.Println(result)
		return nil
	}
	if status.Terminal() && status != scheduler.StatusCompleted {
		return fmt.Errorf("job %s finished %s; no result was extracted", jobID, status)
	}
	return fmt.Errorf("no result available yet for job %s (status %s)", jobID, status)
}
