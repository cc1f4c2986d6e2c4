package main

import (
	"os"
	"sync"

	"github.com/ngconsole/ngconsole/internal/logging"
	"github.com/spf13/cobra"
)

// structuredLogAnnotation marks commands whose output is meant for log
// collectors rather than a person at a terminal.
const structuredLogAnnotation = "ngconsole/structured-log"

type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	executionMu  sync.RWMutex
	executionCtx commandExecutionContext
)

func setCommandExecutionContext(ctx commandExecutionContext) {
	executionMu.Lock()
	defer executionMu.Unlock()
	executionCtx = ctx
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

func currentCommandExecutionContext() commandExecutionContext {
	executionMu.RLock()
	defer executionMu.RUnlock()
	return executionCtx
}

func structuredLogging(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[structuredLogAnnotation] = "true"
	return cmd
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	return cmd.Annotations[structuredLogAnnotation] == "true"
}

// prepareCommand records the running command and, for structured commands,
// installs the default logger.
func prepareCommand(cmd *cobra.Command, _ []string) error {
	structured := commandUsesStructuredLogging(cmd)
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       cmd.CommandPath(),
		UsesStructuredLog: structured,
	})
	if !structured {
		return nil
	}
	_, err := logging.BootstrapFromEnv(logging.BootstrapOptions{
		Command: cmd.CommandPath(),
		Writer:  os.Stderr,
	})
	return err
}
