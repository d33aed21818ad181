package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/internal/observability"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the local environment and suggest fixes.

Checks cover the workspace, the knowledge base, the configured system
profile, and the scheduler client tools on PATH.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	log := observability.CLILogger
	log.Info("=== jobsherpa doctor ===")
	log.Info("")

	ok := true
	checkNum := 0
	check := func(name string, pass bool, detail string) {
		checkNum++
		mark := "✅"
		if !pass {
			mark = "❌"
			ok = false
		}
		log.Info(fmt.Sprintf("[%d] %s... %s %s", checkNum, name, mark, detail))
	}

	check("Go runtime", true, runtime.Version())

	// Workspace must be creatable and writable.
	if err := os.MkdirAll(cfg.Workspace, 0o755); err != nil {
		check("Workspace writable", false, err.Error())
	} else if probe, err := os.CreateTemp(cfg.Workspace, ".doctor-*"); err != nil {
		check("Workspace writable", false, err.Error())
	} else {
		probe.Close()
		os.Remove(probe.Name())
		check("Workspace writable", true, cfg.Workspace)
	}

	if info, err := os.Stat(cfg.KBDir); err != nil || !info.IsDir() {
		check("Knowledge base present", false, cfg.KBDir)
	} else {
		check("Knowledge base present", true, cfg.KBDir)
	}

	if _, err := os.Stat(cfg.UserProfile); err != nil {
		check("User profile", true, "not found (defaults only): "+cfg.UserProfile)
	} else {
		check("User profile", true, cfg.UserProfile)
	}

	rt, err := buildRuntime()
	if err != nil {
		check("System profile", false, err.Error())
		log.Info("")
		return fmt.Errorf("diagnostic checks failed")
	}
	switch {
	case cfg.SystemProfile == "" && rt.system == nil:
		check("System profile", true, "none configured (set system_profile or a profile default)")
	case rt.system != nil:
		check("System profile", true, rt.system.Name)
	}

	// Scheduler client tools must be on PATH for live submissions.
	for _, op := range []string{"submit", "status", "history"} {
		bin := rt.table.Resolve(op)
		if path, err := exec.LookPath(bin); err != nil {
			check("Scheduler tool "+bin, false, "not on PATH (live submissions need a login node)")
		} else {
			check("Scheduler tool "+bin, true, filepath.Dir(path))
		}
	}

	log.Info("")
	if !ok {
		log.Warn("Some checks failed", zap.Int("checks", checkNum))
		return fmt.Errorf("diagnostic checks failed")
	}
	log.Info("All checks passed", zap.Int("checks", checkNum))
	return nil
}
