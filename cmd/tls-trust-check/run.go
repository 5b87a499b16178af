// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	verpkg "github.com/H0llyW00dzZ/tls-trust-validator/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitUntrusted = 2
	exitSignal    = 130
)

func main() {
	log := logger.NewCLILogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, version, log)
	code := exitCode(ctx, err)
	if code != exitOK {
		log.Println(exitMessage(code, err))
	}
	stop()
	os.Exit(code)
}

func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case ctx.Err() != nil:
		return exitSignal
	case errors.Is(err, cli.ErrUntrusted):
		return exitUntrusted
	default:
		return exitError
	}
}

func exitMessage(code int, err error) string {
	switch code {
	case exitUntrusted:
		return "Peer rejected by trust policy."
	case exitSignal:
		return "Operation cancelled by signal. Exiting..."
	default:
		return "Error: " + err.Error()
	}
}
