package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ngconsole/ngconsole/internal/ngclient"
)

// Process exit codes.
const (
	exitFailure  = 1
	exitConfig   = 2
	exitBackend  = 3
	exitCanceled = 130
)

// exitError carries an explicit exit code out of a command.
type exitError struct {
	code   int
	err    error
	silent bool
}

func configError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitConfig, err: err}
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// failure is how a command error is reported and which code the process
// exits with.
type failure struct {
	code    int
	message string
	err     error
	silent  bool
}

func classify(err error) failure {
	var ee *exitError
	if errors.As(err, &ee) {
		f := failure{code: ee.code, message: "command failed", err: err, silent: ee.silent}
		if ee.err != nil {
			f.err = ee.err
		}
		if ee.code == exitConfig {
			f.message = "invalid configuration"
		}
		return f
	}
	if errors.Is(err, context.Canceled) {
		return failure{code: exitCanceled, message: "command canceled", err: err}
	}
	if errors.Is(err, ngclient.ErrBackendUnavailable) {
		return failure{code: exitBackend, message: "backend unavailable", err: err}
	}
	var apiErr *ngclient.APIError
	if errors.As(err, &apiErr) {
		return failure{code: exitBackend, message: "backend rejected the request", err: err}
	}
	return failure{code: exitFailure, message: "command failed", err: err}
}
