package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nao1215/ghsubfinder/internal/crawler"
	"github.com/nao1215/ghsubfinder/internal/credential"
	"github.com/nao1215/ghsubfinder/internal/report"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain error", errors.New("boom"), exitFailure},
		{"no credentials", fmt.Errorf("resolve: %w", credential.ErrNoCredentials), exitNoCredential},
		{"exhausted", fmt.Errorf("run: %w", crawler.ErrCredentialsExhausted), exitExhausted},
		{"output", fmt.Errorf("write: %w", report.ErrOutputWrite), exitOutputWrite},
		{"interrupted", errInterrupted, exitInterrupted},
		{"explicit code wins", withExitCode(exitExhausted, errors.New("x")), exitExhausted},
		{"wrapped explicit code", fmt.Errorf("outer: %w", withExitCode(exitOutputWrite, errors.New("x"))), exitOutputWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithExitCode(t *testing.T) {
	t.Parallel()

	if withExitCode(exitFailure, nil) != nil {
		t.Error("expected nil for nil error")
	}

	base := fmt.Errorf("run: %w", crawler.ErrCredentialsExhausted)
	err := withExitCode(exitExhausted, base)
	if err.Error() != base.Error() {
		t.Errorf("expected message %q, got %q", base.Error(), err.Error())
	}
	if !errors.Is(err, crawler.ErrCredentialsExhausted) {
		t.Error("expected wrapped sentinel to be preserved")
	}
}
