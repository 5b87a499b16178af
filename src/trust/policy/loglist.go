// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/certificate-transparency-go/loglist3"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidLogList indicates the log list does not match the v3 schema.
var ErrInvalidLogList = errors.New("policy: invalid CT log list")

//go:embed schema/log_list_schema.json
var logListSchema []byte

var logListSchemaLoader = gojsonschema.NewBytesLoader(logListSchema)

// ParseLogList validates data against the embedded v3 log list schema and
// decodes it.
//
// The schema only checks structure and types. Logs with missing fields still
// decode and are left out of the trusted set later, with a warning.
func ParseLogList(data []byte) (*loglist3.LogList, error) {
	result, err := gojsonschema.Validate(logListSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogList, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidLogList, strings.Join(msgs, "; "))
	}

	list, err := loglist3.NewFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogList, err)
	}
	return list, nil
}

// LoadLogList reads and parses a log list file.
func LoadLogList(path string) (*loglist3.LogList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLogList(data)
}
