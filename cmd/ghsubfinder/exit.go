package main

import (
	"errors"

	"github.com/nao1215/ghsubfinder/internal/crawler"
	"github.com/nao1215/ghsubfinder/internal/credential"
	"github.com/nao1215/ghsubfinder/internal/report"
)

// Process exit statuses.
const (
	exitOK           = 0
	exitFailure      = 1
	exitNoCredential = 2
	exitExhausted    = 3
	exitOutputWrite  = 4
	exitInterrupted  = 130
)

// errInterrupted is reported when a run was stopped by a signal.
var errInterrupted = errors.New("interrupted")

// exitError carries the process exit status for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// withExitCode attaches code to err. A nil err stays nil.
func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode returns the process status for err. An explicit exitError wins;
// otherwise the known sentinels are mapped and anything else is 1.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, credential.ErrNoCredentials):
		return exitNoCredential
	case errors.Is(err, crawler.ErrCredentialsExhausted):
		return exitExhausted
	case errors.Is(err, report.ErrOutputWrite):
		return exitOutputWrite
	case errors.Is(err, errInterrupted):
		return exitInterrupted
	default:
		return exitFailure
	}
}
