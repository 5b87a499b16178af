// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
)

// commandName is the component name in logs and the usage fallback.
const commandName = "tls-trust-check"

// ErrUntrusted is returned by the check command when the peer is rejected.
var ErrUntrusted = errors.New("peer failed trust validation")

type options struct {
	configPath   string
	logList      string
	minSCTs      uint
	minOperators uint
	ocspMode     string
	ocspFailHard bool
	noOCSP       bool
	crlset       string
	caBundle     string
	systemRoots  bool
	timeout      time.Duration
	format       string
	listen       string
}

// Execute runs the root command with ctx, logging through base.
//
// Returns:
//   - error: nil on success, [ErrUntrusted] for a rejected peer, or the failure
func Execute(ctx context.Context, version string, base logger.Logger) error {
	return NewRootCommand(version, base).ExecuteContext(ctx)
}

// NewRootCommand builds "<executable> [host[:port]]" and its serve subcommand.
func NewRootCommand(version string, base logger.Logger) *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:           posix.ExecutableName(commandName) + " [host[:port]]",
		Short:         "Check a TLS peer against CT, OCSP and CRLSet policies",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, o, version, base, args[0])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "configuration file (YAML or JSON, default $"+ConfigEnv+")")
	flags.StringVar(&o.logList, "ct-log-list", "", "CT log list JSON; enables Certificate Transparency checks")
	flags.UintVar(&o.minSCTs, "min-scts", 2, "minimum number of valid embedded SCTs")
	flags.UintVar(&o.minOperators, "min-operators", 2, "minimum number of distinct log operators")
	flags.StringVar(&o.ocspMode, "ocsp-mode", "mixed", "OCSP mode: stapling, direct or mixed")
	flags.BoolVar(&o.ocspFailHard, "ocsp-fail-hard", true, "fail on OCSP errors other than revocation")
	flags.BoolVar(&o.noOCSP, "no-ocsp", false, "disable OCSP checks")
	flags.StringVar(&o.crlset, "crlset", "", "CRLSet file path or http(s) URL")
	flags.StringVar(&o.caBundle, "ca-bundle", "", "PEM CA bundle used as trust anchors")
	flags.BoolVar(&o.systemRoots, "system-roots", false, "use the system trust store when no CA bundle is given")
	flags.DurationVar(&o.timeout, "timeout", 15*time.Second, "dial, handshake and validation timeout")
	rootCmd.Flags().StringVarP(&o.format, "format", "f", FormatTable, "output format: table or json")

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve trust checks over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, o, version, base)
		},
	}
	serveCmd.Flags().StringVar(&o.listen, "listen", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)

	return rootCmd
}

// loadConfig reads the configuration and applies every flag the user set.
func loadConfig(cmd *cobra.Command, o *options) (*Config, error) {
	cfg, err := readConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("ct-log-list") {
		cfg.CT.LogList = o.logList
	}
	if changed("min-scts") {
		cfg.CT.MinSCTs = o.minSCTs
	}
	if changed("min-operators") {
		cfg.CT.MinOperators = o.minOperators
	}
	if changed("ocsp-mode") {
		cfg.OCSP.Mode = o.ocspMode
	}
	if changed("ocsp-fail-hard") {
		cfg.OCSP.FailHard = o.ocspFailHard
	}
	if changed("no-ocsp") {
		cfg.OCSP.Enabled = !o.noOCSP
	}
	if changed("crlset") {
		cfg.CRLSet.Path, cfg.CRLSet.URL = "", ""
		if isURL(o.crlset) {
			cfg.CRLSet.URL = o.crlset
		} else {
			cfg.CRLSet.Path = o.crlset
		}
	}
	if changed("ca-bundle") {
		cfg.TLS.CABundle = o.caBundle
	}
	if changed("system-roots") {
		cfg.TLS.SystemRoots = o.systemRoots
	}
	if changed("timeout") {
		cfg.TLS.Timeout = o.timeout.String()
	}
	if changed("listen") {
		cfg.Server.Listen = o.listen
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// newLogger picks the text or JSON logger and wraps it at the configured level.
func newLogger(cmd *cobra.Command, base logger.Logger, cfg *Config) *logger.Scoped {
	level, _ := logger.ParseLevel(cfg.Log.Level)
	if cfg.Log.Format == "json" {
		base = logger.NewJSONLogger(cmd.ErrOrStderr(), commandName, false)
	} else if base != nil {
		base.SetOutput(cmd.ErrOrStderr())
	}
	return logger.NewScoped(base, commandName, level)
}

func runCheck(cmd *cobra.Command, o *options, version string, base logger.Logger, arg string) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	target, err := ParseTarget(arg)
	if err != nil {
		return err
	}

	log := newLogger(cmd, base, cfg)
	checker, err := NewChecker(cfg, version, log, nil)
	if err != nil {
		return err
	}
	defer checker.Close()

	report, err := checker.Check(cmd.Context(), target)
	if err != nil {
		return err
	}
	if err := Render(cmd.OutOrStdout(), report, o.format); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if !report.Trusted {
		return ErrUntrusted
	}
	return nil
}

func runServe(cmd *cobra.Command, o *options, version string, base logger.Logger) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	log := newLogger(cmd, base, cfg)

	var (
		stats    prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		stats, gatherer = reg, reg
	}

	checker, err := NewChecker(cfg, version, log, stats)
	if err != nil {
		return err
	}
	defer checker.Close()

	gin.SetMode(gin.ReleaseMode)
	return NewServer(checker, gatherer, log).Run(cmd.Context(), cfg.Server.Listen)
}
