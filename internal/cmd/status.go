package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the status of a job",
	Long: `Show the status of a tracked job, refreshing it from the scheduler
when it is not already terminal. With no job id, the most recently
submitted job is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	status, ok, err := rt.tracker.GetStatus(cmd.Context(), jobID)
	if err != nil {
		return fmt.Errorf("check status of job %s: %w", jobID, err)
	}
	if !ok {
		return fmt.Errorf("no record of job %s", jobID)
	}
	fmt.Printf("Job %s is %s\n", jobID, status)
	return nil
}
