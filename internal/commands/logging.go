package commands

import (
	"strings"

	"github.com/goliatone/go-nestsync/internal/logging"
	"github.com/goliatone/go-nestsync/pkg/interfaces"
)

const commandModuleRoot = "nestsync.commands"

// CommandLogger returns a module-scoped logger for command handlers, enriching it with
// consistent structured fields so worker and scheduler executions line up in the logs.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
