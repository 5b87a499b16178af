// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestBufferInterface(t *testing.T) {
	tests := []struct {
		name  string
		setup func(buf Buffer)
		want  string
	}{
		{
			name:  "Write byte slice",
			setup: func(buf Buffer) { buf.Write([]byte("hello")) },
			want:  "hello",
		},
		{
			name:  "WriteString",
			setup: func(buf Buffer) { buf.WriteString("test string") },
			want:  "test string",
		},
		{
			name: "Mixed writes",
			setup: func(buf Buffer) {
				buf.Write([]byte("hello"))
				buf.WriteString(" test")
				buf.WriteByte('!')
			},
			want: "hello test!",
		},
		{
			name:  "ReadFrom",
			setup: func(buf Buffer) { buf.ReadFrom(strings.NewReader("from reader")) },
			want:  "from reader",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Default.Get()
			defer func() {
				buf.Reset()
				Default.Put(buf)
			}()

			tt.setup(buf)
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, len(tt.want), buf.Len())
			assert.Equal(t, []byte(tt.want), buf.Bytes())
		})
	}
}

func TestReadAll(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr error
	}{
		{name: "no limit", input: "ocsp-response", limit: 0},
		{name: "under limit", input: "abc", limit: 10},
		{name: "exact limit", input: "abcd", limit: 4},
		{name: "over limit", input: "abcdef", limit: 4, wantErr: ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ReadAll(strings.NewReader(tt.input), tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(data))
		})
	}

	t.Run("reader error", func(t *testing.T) {
		_, err := ReadAll(failingReader{}, 0)
		assert.Error(t, err)
	})

	t.Run("returned slice is not reused", func(t *testing.T) {
		first, err := ReadAll(bytes.NewReader([]byte("first")), 0)
		require.NoError(t, err)
		_, err = ReadAll(bytes.NewReader([]byte("second")), 0)
		require.NoError(t, err)
		assert.Equal(t, "first", string(first))
	})
}

func TestPoolConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			buf := Default.Get()
			buf.WriteString(strings.Repeat("x", n))
			assert.Equal(t, n, buf.Len())
			buf.Reset()
			Default.Put(buf)
		}(i)
	}
	wg.Wait()
}
