// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509chain "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/kit"
)

// Validator result statuses.
const (
	StatusPass      = "pass"
	StatusFail      = "fail"
	StatusCancelled = "cancelled"
	StatusPending   = "not completed"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Report is the outcome of one check.
type Report struct {
	Host       string                  `json:"host"`
	Port       int                     `json:"port"`
	Trusted    bool                    `json:"trusted"`
	Error      string                  `json:"error,omitempty"`
	Kind       string                  `json:"kind,omitempty"`
	Policy     []string                `json:"policy"`
	Validators []ValidatorReport       `json:"validators"`
	Chain      []x509chain.CertSummary `json:"chain,omitempty"`
	CheckedAt  time.Time               `json:"checkedAt"`
	Duration   time.Duration           `json:"-"`
}

// ValidatorReport is one validator's verdict.
type ValidatorReport struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	TookMS int64  `json:"tookMs"`
}

// MarshalJSON adds the duration in milliseconds.
func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"durationMs"`
	}{plain(*r), r.Duration.Milliseconds()})
}

func (r *Report) addResults(sess *kit.Session) {
	byName := make(map[string]kit.Result)
	for _, res := range sess.Results() {
		byName[res.Validator] = res
	}

	for _, name := range sess.Active() {
		vr := ValidatorReport{Name: name, Status: StatusPending}
		if res, ok := byName[name]; ok {
			vr.TookMS = res.Took.Milliseconds()
			switch {
			case res.Err == nil:
				vr.Status = StatusPass
			case errors.Is(res.Err, context.Canceled):
				vr.Status = StatusCancelled
			default:
				vr.Status = StatusFail
				vr.Error = res.Err.Error()
				if k := trust.KindOf(res.Err); k != trust.KindUnknown {
					vr.Kind = k.String()
				}
			}
		}
		r.Validators = append(r.Validators, vr)
	}
}

func (r *Report) setError(err error) {
	r.Error = err.Error()
	if k := trust.KindOf(err); k != trust.KindUnknown {
		r.Kind = k.String()
	}
}

// Render writes r in the named format.
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, r)
	case FormatTable, "":
		return RenderTable(w, r)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// RenderJSON writes r as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderTable writes r as markdown: a verdict line, the validator table and,
// for trusted peers, the presented chain.
func RenderTable(w io.Writer, r *Report) error {
	verdict := "TRUSTED"
	if !r.Trusted {
		verdict = "REJECTED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s:%d %s\n\n", r.Host, r.Port, verdict)
	if r.Error != "" {
		fmt.Fprintf(&b, "Reason: %s\n\n", r.Error)
	}
	policies := "none"
	if len(r.Policy) > 0 {
		policies = strings.Join(r.Policy, ", ")
	}
	fmt.Fprintf(&b, "Policy: %s\n\n", policies)

	if len(r.Validators) > 0 {
		table := newMarkdownTable(&b)
		table.Header([]string{"Validator", "Status", "Kind", "Detail", "Took"})
		for _, v := range r.Validators {
			if err := table.Append([]string{v.Name, v.Status, v.Kind, v.Error, fmt.Sprintf("%dms", v.TookMS)}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		b.WriteString("\n")
	}

	if len(r.Chain) > 0 {
		table := newMarkdownTable(&b)
		table.Header([]string{"#", "Role", "Subject", "Issuer", "Serial", "Valid Until"})
		for _, c := range r.Chain {
			if err := table.Append([]string{
				fmt.Sprintf("%d", c.Index+1),
				c.Role,
				c.Subject,
				c.Issuer,
				c.Serial,
				c.NotAfter.Format("2006-01-02"),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func newMarkdownTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
}
