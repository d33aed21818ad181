package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobsherpa/jobsherpa/internal/observability"
	"github.com/jobsherpa/jobsherpa/pkg/profile"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write user profile defaults",
	Long: `Read and write the defaults section of the user profile.

Example:
  jobsherpa config get system
  jobsherpa config set partition gpu`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one default value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := profile.NewManager(cfg.UserProfile, observability.CLILogger)
		value, err := mgr.Get(args[0])
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("%q is not set in %s", args[0], mgr.Path())
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one default value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := profile.NewManager(cfg.UserProfile, observability.CLILogger)
		if err := mgr.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s in %s\n", args[0], args[1], mgr.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
