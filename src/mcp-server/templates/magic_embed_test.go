// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates

import (
	"io"
	"strings"
	"testing"
)

func TestMagicEmbed_ReadFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		contains []string
		wantErr  bool
	}{
		{
			name:     "instructions template",
			filename: "instructions.md",
			contains: []string{"# TLS Trust Validator", "{{range .Tools}}", "trustChecker"},
		},
		{
			name:     "trust policy documentation",
			filename: "trust-policies.md",
			contains: []string{"InsufficientOperatorDiversity", "mixed", "RevokedByCrlSet"},
		},
		{
			name:     "non-existent file",
			filename: "non-existent.md",
			wantErr:  true,
		},
		{
			name:     "invalid path",
			filename: "../invalid.md",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MagicEmbed.ReadFile(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MagicEmbed.ReadFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			content := string(data)
			for _, want := range tt.contains {
				if !strings.Contains(content, want) {
					t.Errorf("%s does not contain %q", tt.filename, want)
				}
			}
		})
	}
}

func TestMagicEmbed_ReadDir(t *testing.T) {
	entries, err := MagicEmbed.ReadDir(".")
	if err != nil {
		t.Fatalf("MagicEmbed.ReadDir() error = %v", err)
	}

	found := map[string]bool{"instructions.md": false, "trust-policies.md": false}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Errorf("unexpected directory %s", entry.Name())
		}
		if _, ok := found[entry.Name()]; ok {
			found[entry.Name()] = true
		}
	}
	for name, ok := range found {
		if !ok {
			t.Errorf("expected %s in directory listing", name)
		}
	}

	if _, err := MagicEmbed.ReadDir("non-existent"); err == nil {
		t.Error("expected error for non-existent directory")
	}
}

func TestMagicEmbed_Open(t *testing.T) {
	file, err := MagicEmbed.Open("trust-policies.md")
	if err != nil {
		t.Fatalf("MagicEmbed.Open() error = %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	info, err := file.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.IsDir() || info.Size() != int64(len(data)) {
		t.Errorf("unexpected file info: dir=%t size=%d read=%d", info.IsDir(), info.Size(), len(data))
	}

	if _, err := MagicEmbed.Open("non-existent.md"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestMagicEmbed_ConcurrentAccess(t *testing.T) {
	done := make(chan struct{}, 3)
	for _, name := range []string{"instructions.md", "trust-policies.md", "instructions.md"} {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 10 {
				if _, err := MagicEmbed.ReadFile(name); err != nil {
					t.Errorf("concurrent read failed: %v", err)
				}
			}
		}()
	}
	for range 3 {
		<-done
	}
}

func TestRender(t *testing.T) {
	data := struct {
		Tools     []struct{ Name, Description string }
		ToolRoles map[string]string
	}{
		Tools: []struct{ Name, Description string }{
			{Name: "check_tls_trust", Description: "Dial and validate"},
		},
		ToolRoles: map[string]string{"trustChecker": "check_tls_trust", "policyInspector": "get_trust_policy"},
	}

	out, err := Render("instructions.md", data)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"- `check_tls_trust`: Dial and validate", "Call `get_trust_policy`"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered instructions do not contain %q", want)
		}
	}

	if _, err := Render("non-existent.md", nil); err == nil {
		t.Error("expected error for non-existent template")
	}
	if _, err := Render("instructions.md", struct{}{}); err == nil {
		t.Error("expected error for data without Tools")
	}
}
