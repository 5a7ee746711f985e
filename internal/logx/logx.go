// Package logx builds the github.com/ternarybob/arbor logger pyrite's
// CLI, REST server, and MCP server all share, configured from
// internal/config's LoggingConfig.
package logx

import (
	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"

	"github.com/markramm/pyrite/internal/config"
)

// New builds a logger with a console writer and, when cfg.File is set, a
// rotating file writer alongside it. Level defaults to "info" if unset.
func New(cfg config.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger().WithConsoleWriter(writerConfig(cfg, models.LogWriterTypeConsole, ""))

	if cfg.File != "" {
		logger = logger.WithFileWriter(writerConfig(cfg, models.LogWriterTypeFile, cfg.File))
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return logger.WithLevelFromString(level)
}

func writerConfig(cfg config.LoggingConfig, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       "15:04:05.000",
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       3,
	}
}

// Stop flushes any buffered log writers before process exit.
func Stop() {
	arborcommon.Stop()
}

// Fallback returns a bare console logger for use before configuration has
// been loaded (startup errors parsing the config file itself).
func Fallback() arbor.ILogger {
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05.000",
	})
}
