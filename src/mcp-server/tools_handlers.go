// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/sct"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// handleCheckTLSTrust runs one trust check. Bad arguments and failed checks
// become tool errors; an untrusted peer is a normal result with trusted false.
func handleCheckTLSTrust(checker cli.TrustChecker) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hostname, err := request.RequireString("hostname")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		target, err := cli.ParseTarget(hostname)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		args := request.GetArguments()
		if _, ok := args["port"]; ok {
			target.Port = request.GetInt("port", cli.DefaultPort)
		}
		target.OCSPMode = request.GetString("ocsp_mode", "")
		if _, ok := args["fail_hard"]; ok {
			failHard := request.GetBool("fail_hard", true)
			target.FailHard = &failHard
		}

		format := request.GetString("format", cli.FormatJSON)
		if format != cli.FormatJSON && format != cli.FormatTable {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", format)), nil
		}

		report, err := checker.Check(ctx, target)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("check failed: %v", err)), nil
		}

		buf := gc.Default.Get()
		defer gc.Default.Put(buf)
		if err := cli.Render(buf, report, format); err != nil {
			return nil, fmt.Errorf("failed to render report: %w", err)
		}
		return mcp.NewToolResultText(buf.String()), nil
	}
}

// handleGetTrustPolicy describes p as JSON.
func handleGetTrustPolicy(p *policy.Config) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.MarshalIndent(summarizePolicy(p), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal policy: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

type policySummary struct {
	Enabled []string       `json:"enabled"`
	CT      *ctSummary     `json:"ct,omitempty"`
	OCSP    *ocspSummary   `json:"ocsp,omitempty"`
	CRLSet  *crlSetSummary `json:"crlset,omitempty"`
}

// ctSummary counts the log list as listed and as trusted. Trusted logs are
// what SCT verification actually consults.
type ctSummary struct {
	Operators            int  `json:"operators"`
	Logs                 int  `json:"logs"`
	TrustedOperators     int  `json:"trustedOperators"`
	TrustedLogs          int  `json:"trustedLogs"`
	SkippedLogs          int  `json:"skippedLogs"`
	MinEmbeddedSCTs      uint `json:"minEmbeddedScts"`
	MinDistinctOperators uint `json:"minDistinctOperators"`
}

type ocspSummary struct {
	Mode     string `json:"mode"`
	FailHard bool   `json:"failHard"`
}

type crlSetSummary struct {
	// Source is "static" for a preloaded set and "loader" otherwise.
	Source                 string `json:"source"`
	Sequence               *int64 `json:"sequence,omitempty"`
	KnownInterceptionSPKIs int    `json:"knownInterceptionSpkis,omitempty"`
	VerifySignature        bool   `json:"verifySignature"`
	UpdateStrategy         string `json:"updateStrategy"`
}

func summarizePolicy(p *policy.Config) policySummary {
	s := policySummary{Enabled: p.Enabled()}
	if s.Enabled == nil {
		s.Enabled = []string{}
	}
	if p == nil {
		return s
	}

	if p.CT != nil {
		ct := &ctSummary{
			MinEmbeddedSCTs:      p.CT.MinEmbeddedSCTs,
			MinDistinctOperators: p.CT.MinDistinctOperators,
		}
		if p.CT.LogList != nil {
			ct.Operators = len(p.CT.LogList.Operators)
			for _, op := range p.CT.LogList.Operators {
				if op != nil {
					ct.Logs += len(op.Logs)
				}
			}
		}
		set, skipped := sct.NewLogSet(p.CT.LogList)
		operators := make(map[string]struct{})
		for _, l := range set.Logs() {
			operators[l.Operator] = struct{}{}
		}
		ct.TrustedLogs = set.Len()
		ct.TrustedOperators = len(operators)
		ct.SkippedLogs = len(skipped)
		s.CT = ct
	}
	if p.OCSP != nil {
		s.OCSP = &ocspSummary{Mode: p.OCSP.Mode.String(), FailHard: p.OCSP.FailHard}
	}
	if p.CRLSet != nil {
		c := &crlSetSummary{
			Source:          "loader",
			VerifySignature: p.CRLSet.VerifySignature,
			UpdateStrategy:  p.CRLSet.UpdateStrategy.String(),
		}
		if p.CRLSet.Set != nil {
			seq := p.CRLSet.Set.Sequence()
			c.Source = "static"
			c.Sequence = &seq
			if set, ok := p.CRLSet.Set.(*crlset.Set); ok {
				c.KnownInterceptionSPKIs = set.KnownInterceptionCount()
			}
		}
		s.CRLSet = c
	}
	return s
}
