// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var embeddedFS embed.FS

// EmbedFS is the read-only view of the embedded markdown files.
//
// Implementations must be safe for concurrent use.
type EmbedFS interface {
	fs.ReadFileFS
	fs.ReadDirFS
}

// MagicEmbed holds the server instructions template and the trust policy
// reference.
//
//	doc, err := templates.MagicEmbed.ReadFile("trust-policies.md")
var MagicEmbed EmbedFS = embeddedFS

// Render executes the named embedded file as a text/template with data.
//
// Parameters:
//   - name: Embedded file name, e.g. "instructions.md"
//   - data: Template data
//
// Returns:
//   - string: Rendered text
//   - error: If the file is missing or the template fails to parse or execute
func Render(name string, data any) (string, error) {
	raw, err := MagicEmbed.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
