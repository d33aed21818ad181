// Package observability owns process-wide logging.
//
// CLI commands share one package-level logger so output formatting and
// level control stay consistent across subcommands.
package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for CLI commands. It is a no-op
// until InitCLILogger runs.
var CLILogger = zap.NewNop()

// InitCLILogger configures the CLI logger at the given level. When
// structured is true output is JSON; otherwise a human-readable console
// encoding is used. Unknown levels fall back to info.
func InitCLILogger(level string, structured bool) {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if structured {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	CLILogger = zap.New(core)
}

// SyncLogger flushes buffered log entries. Safe to call on a no-op logger.
func SyncLogger() {
	// Sync on stderr returns EINVAL on some platforms; ignore it.
	_ = CLILogger.Sync()
}
