package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobsherpa/jobsherpa/pkg/conversation"
)

var (
	runDryRun      bool
	runInteractive bool
)

var runCmd = &cobra.Command{
	Use:   "run \"<request>\"",
	Short: "Submit a job from a natural-language request",
	Long: `Submit a job described in natural language.

The request is matched against application recipes in the knowledge base.
When required parameters are missing, jobsherpa asks for them; with
--interactive it reads answers from stdin, otherwise it prints the question
and exits.

Example:
  jobsherpa run "run fastqc on the ecoli dataset"
  jobsherpa run "run fastqc" --interactive
  jobsherpa run "run fastqc" --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Resolve, render, and stop before executing the scheduler command")
	runCmd.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "Answer follow-up questions on stdin")
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	p, err := rt.buildPipeline(runDryRun)
	if err != nil {
		return err
	}
	engine := conversation.NewEngine(nil, p, rt.tracker, rt.profile, rt.logger)

	ctx := cmd.Context()
	reply := engine.HandleMessage(ctx, args[0])
	fmt.Println(reply.Text)

	if !reply.AwaitingInput {
		return nil
	}
	if !runInteractive {
		fmt.Println("(re-run with --interactive to answer follow-up questions)")
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for reply.AwaitingInput {
		fmt.Print("> ")
		if !scanner.Scan() {
			// EOF mid-conversation: treat like an empty answer to the save
			// prompt and stop.
			reply = engine.HandleMessage(ctx, "")
			fmt.Println(reply.Text)
			break
		}
		reply = engine.HandleMessage(ctx, strings.TrimSpace(scanner.Text()))
		fmt.Println(reply.Text)
	}
	return scanner.Err()
}
