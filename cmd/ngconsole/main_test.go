package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/ngconsole/ngconsole/internal/ngclient"
)

func decodeLogLine(t *testing.T, out string) map[string]any {
	t.Helper()
	line := strings.TrimSpace(out)
	if line == "" {
		t.Fatal("expected structured log output")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", line, err)
	}
	return payload
}

func TestCheckBackendWithoutBackendConfigExitsTwo(t *testing.T) {
	t.Setenv("NG_API_BASE_URL", "")
	t.Setenv("NG_ACCOUNT_ID", "")
	t.Setenv("NG_API_KEY", "")
	t.Setenv("NG_API_KEY_VAULT_PATH", "")
	t.Setenv("CE_AZURE_WIZARD_VARIANT", "")
	t.Cleanup(resetCommandExecutionContext)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"check-backend"})
	var out bytes.Buffer
	if got := runMain(Execute, &out); got != exitConfig {
		t.Fatalf("runMain() = %d, want %d (output %q)", got, exitConfig, out.String())
	}
	if got := out.String(); got != "NG_API_BASE_URL is required\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestCheckBackendWithOpenBreakerExitsThree(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{CommandPath: "ngconsole check-backend"})
	t.Cleanup(resetCommandExecutionContext)

	api := &stubLister{err: ngclient.ErrBackendUnavailable}
	run := func() error {
		return checkBackend(context.Background(), api, ngclient.Scope{OrgIdentifier: "default"}, &bytes.Buffer{})
	}

	var out bytes.Buffer
	if got := runMain(run, &out); got != exitBackend {
		t.Fatalf("runMain() = %d, want %d", got, exitBackend)
	}
	if got := out.String(); got != "backend check: backend temporarily unavailable\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestCheckBackendRejectedKeyPrintsCorrelationID(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{CommandPath: "ngconsole check-backend"})
	t.Cleanup(resetCommandExecutionContext)

	api := &stubLister{err: &ngclient.APIError{
		StatusCode:    http.StatusUnauthorized,
		Code:          "INVALID_TOKEN",
		Message:       "Token is not valid",
		CorrelationID: "corr-9",
	}}
	run := func() error {
		return checkBackend(context.Background(), api, ngclient.Scope{}, &bytes.Buffer{})
	}

	var out bytes.Buffer
	if got := runMain(run, &out); got != exitBackend {
		t.Fatalf("runMain() = %d, want %d", got, exitBackend)
	}
	want := "backend check: backend INVALID_TOKEN (401): Token is not valid\ncorrelation id: corr-9\n"
	if got := out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestServeBackendFailureIsLoggedWithStatus(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "ngconsole serve",
		UsesStructuredLog: true,
	})
	t.Cleanup(resetCommandExecutionContext)

	err := &ngclient.APIError{StatusCode: http.StatusBadGateway, Message: "upstream down", CorrelationID: "corr-1"}
	var out bytes.Buffer
	if got := runMain(func() error { return err }, &out); got != exitBackend {
		t.Fatalf("runMain() = %d, want %d", got, exitBackend)
	}

	payload := decodeLogLine(t, out.String())
	want := map[string]any{
		"app":            "ngconsole",
		"command":        "ngconsole serve",
		"msg":            "backend rejected the request",
		"exit_code":      float64(exitBackend),
		"status_code":    float64(http.StatusBadGateway),
		"correlation_id": "corr-1",
	}
	for key, value := range want {
		if payload[key] != value {
			t.Fatalf("%s = %v, want %v", key, payload[key], value)
		}
	}
}

func TestMigrateConfigErrorIsLoggedEvenWithBadLoggingEnv(t *testing.T) {
	t.Setenv("LOG_FORMAT", "invalid")
	t.Setenv("LOG_LEVEL", "info")
	setCommandExecutionContext(commandExecutionContext{
		CommandPath:       "ngconsole migrate",
		UsesStructuredLog: true,
	})
	t.Cleanup(resetCommandExecutionContext)

	var out bytes.Buffer
	code := runMain(func() error { return configError(errors.New("DATABASE_URL is required")) }, &out)
	if code != exitConfig {
		t.Fatalf("runMain() = %d, want %d", code, exitConfig)
	}
	payload := decodeLogLine(t, out.String())
	if payload["msg"] != "invalid configuration" || payload["error"] != "DATABASE_URL is required" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestCanceledCheckPrintsCanceled(t *testing.T) {
	setCommandExecutionContext(commandExecutionContext{CommandPath: "ngconsole check-backend"})
	t.Cleanup(resetCommandExecutionContext)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &stubLister{err: ctx.Err()}

	var out bytes.Buffer
	code := runMain(func() error { return checkBackend(ctx, api, ngclient.Scope{}, &bytes.Buffer{}) }, &out)
	if code != exitCanceled || out.String() != "canceled\n" {
		t.Fatalf("runMain() = %d, output %q", code, out.String())
	}
}

func TestRunMainReturnsZeroOnSuccess(t *testing.T) {
	var out bytes.Buffer
	if got := runMain(func() error { return nil }, &out); got != 0 || out.Len() != 0 {
		t.Fatalf("runMain() = %d, output %q", got, out.String())
	}
}
