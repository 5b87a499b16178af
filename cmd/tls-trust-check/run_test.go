// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	verpkg "github.com/H0llyW00dzZ/tls-trust-validator/src/version"
)

func TestVersionInit(t *testing.T) {
	assert.NotEmpty(t, version, "version should not be empty after init")
	if version != verpkg.Version {
		t.Logf("version set by ldflags: %s (package version: %s)", version, verpkg.Version)
	}
}

func TestExitCode(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		err     error
		want    int
		message string
	}{
		{name: "success", ctx: context.Background(), want: exitOK},
		{name: "untrusted", ctx: context.Background(), err: fmt.Errorf("check: %w", cli.ErrUntrusted), want: exitUntrusted, message: "Peer rejected by trust policy."},
		{name: "failure", ctx: context.Background(), err: errors.New("boom"), want: exitError, message: "Error: boom"},
		{name: "signal", ctx: cancelled, err: context.Canceled, want: exitSignal, message: "Operation cancelled by signal. Exiting..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := exitCode(tt.ctx, tt.err)
			assert.Equal(t, tt.want, code)
			if tt.message != "" {
				assert.Equal(t, tt.message, exitMessage(code, tt.err))
			}
		})
	}
}
