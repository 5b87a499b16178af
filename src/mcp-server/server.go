// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
)

// Run serves the trust tools over stdin and stdout until ctx is cancelled
// or the client disconnects.
//
// Parameters:
//   - ctx: Cancelled on shutdown, typically by a signal
//   - version: Announced server version
//
// Returns:
//   - error: Configuration or checker setup failure, or the stdio server error
//
// Configuration is read from the file named by the TLS_TRUST_CONFIG
// environment variable. Logs go to stderr as JSON since stdout carries the
// protocol.
func Run(ctx context.Context, version string) error {
	return serve(ctx, version, os.Stdin, os.Stdout, os.Stderr)
}

func serve(ctx context.Context, version string, in io.Reader, out, errOut io.Writer) error {
	cfg, err := cli.LoadConfig("")
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.NewScoped(logger.NewJSONLogger(errOut, "mcp-server", false), "mcp-server", level)

	checker, err := cli.NewChecker(cfg, version, log, nil)
	if err != nil {
		return fmt.Errorf("failed to create checker: %w", err)
	}
	defer checker.Close()

	b := NewServerBuilder().
		WithVersion(version).
		WithChecker(checker).
		WithPolicy(checker.Policy()).
		WithDefaultTools()
	s, err := b.WithResources(createResources(version, b.deps.Tools)...).Build()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	log.Infof("Serving %s %s over stdio", serverName, version)
	if err := server.NewStdioServer(s).Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
