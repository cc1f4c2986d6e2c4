package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ngconsole/ngconsole/internal/logging"
	"github.com/ngconsole/ngconsole/internal/ngclient"
)

func main() {
	if code := runMain(Execute, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func runMain(execute func() error, stderr io.Writer) int {
	err := execute()
	if err == nil {
		return 0
	}
	f := classify(err)
	if !f.silent {
		report(f, stderr)
	}
	return f.code
}

// report writes f as one structured log line for commands run by
// supervisors and as plain text otherwise.
func report(f failure, stderr io.Writer) {
	ctx := currentCommandExecutionContext()
	if !ctx.UsesStructuredLog {
		if f.code == exitCanceled {
			fmt.Fprintln(stderr, "canceled")
			return
		}
		fmt.Fprintln(stderr, f.err)
		var apiErr *ngclient.APIError
		if errors.As(f.err, &apiErr) && apiErr.CorrelationID != "" {
			fmt.Fprintf(stderr, "correlation id: %s\n", apiErr.CorrelationID)
		}
		return
	}

	attrs := []any{"exit_code", f.code, "error", f.err}
	var apiErr *ngclient.APIError
	if errors.As(f.err, &apiErr) {
		attrs = append(attrs, "status_code", apiErr.StatusCode)
		if apiErr.CorrelationID != "" {
			attrs = append(attrs, "correlation_id", apiErr.CorrelationID)
		}
	}
	fatalLogger(ctx, stderr).Error(f.message, attrs...)
}

func fatalLogger(ctx commandExecutionContext, stderr io.Writer) *slog.Logger {
	cfg, err := logging.LoadConfigFromEnv()
	if err != nil {
		cfg = logging.DefaultConfig()
	}
	return logging.NewLogger(cfg, stderr, ctx.CommandPath)
}
