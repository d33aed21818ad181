// Package cmd implements the jobsherpa command-line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobsherpa/jobsherpa/internal/config"
	"github.com/jobsherpa/jobsherpa/internal/observability"
)

// versionInfo is injected at build time via SetVersionInfo.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build-time version metadata. Called from main
// before Execute.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	cfgFile string

	// cfg is the resolved configuration, populated by the persistent
	// pre-run hook before any subcommand executes.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jobsherpa",
	Short: "Conversational HPC job submission and tracking",
	Long: `jobsherpa turns natural-language requests into scheduler job
submissions, collects missing parameters over a short conversation, and
tracks submitted jobs through to their extracted results.

Configuration is layered: built-in defaults, then ~/.jobsherpa/config.yaml
(or --config), then JOBSHERPA_* environment variables, then flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		observability.InitCLILogger(cfg.Logging.Level, cfg.Logging.Profile == "structured")
		return nil
	},
}

// setDefaults registers built-in configuration defaults on the global
// viper instance.
func setDefaults() {
	config.SetDefaults(viper.GetViper())
}

func init() {
	setDefaults()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to config file (default ~/.jobsherpa/config.yaml)")
	pf.String("workspace", "", "Base directory for job workspaces")
	pf.String("kb-dir", "", "Knowledge base directory")
	pf.String("user-profile", "", "Path to user profile YAML")
	pf.String("system-profile", "", "System profile name to run against")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")

	_ = viper.BindPFlag("workspace", pf.Lookup("workspace"))
	_ = viper.BindPFlag("kb_dir", pf.Lookup("kb-dir"))
	_ = viper.BindPFlag("user_profile", pf.Lookup("user-profile"))
	_ = viper.BindPFlag("system_profile", pf.Lookup("system-profile"))
	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobsherpa %s (commit %s, built %s)\n",
			versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	},
}

// Execute runs the root command.
func Execute() error {
	defer observability.SyncLogger()
	return rootCmd.Execute()
}
