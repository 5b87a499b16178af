// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crlset

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrTruncated indicates the data ended inside a header or entry.
	ErrTruncated = errors.New("crlset: truncated data")

	// ErrInvalidHeader indicates the JSON header could not be decoded.
	ErrInvalidHeader = errors.New("crlset: invalid header")
)

const spkiHashLen = 32

// Status is the outcome of a revocation lookup.
type Status int

const (
	OK Status = iota
	RevokedBySPKI
	RevokedBySerial
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case RevokedBySPKI:
		return "REVOKED_BY_SPKI"
	case RevokedBySerial:
		return "REVOKED_BY_SERIAL"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Checker is the lookup surface the CRLSet validator depends on.
type Checker interface {
	// Check returns the revocation status of a serial issued under an SPKI hash.
	// Both arguments are hex strings; case and leading zero bytes in the serial are ignored.
	Check(issuerSPKIHash, serialHex string) Status
	// Sequence identifies the set version.
	Sequence() int64
}

// Header is the JSON header of a CRLSet.
type Header struct {
	Version                int      `json:"Version"`
	ContentType            string   `json:"ContentType"`
	Sequence               int64    `json:"Sequence"`
	DeltaFrom              int64    `json:"DeltaFrom"`
	NumParents             int      `json:"NumParents"`
	BlockedSPKIs           []string `json:"BlockedSPKIs"`
	KnownInterceptionSPKIs []string `json:"KnownInterceptionSPKIs,omitempty"`
	// NotAfter is a Unix timestamp in seconds; zero means no expiry.
	NotAfter int64 `json:"NotAfter,omitempty"`
}

// InterceptionChecker is implemented by checkers that also list SPKIs of
// known interception roots. A match marks the chain; it is not revocation.
type InterceptionChecker interface {
	KnownInterception(spkiHash string) bool
}

// Set is an immutable parsed CRLSet. It is safe for concurrent use.
type Set struct {
	header       Header
	blocked      map[string]struct{}
	interception map[string]struct{}
	revoked      map[string]map[string]struct{}
}

// Parse decodes a CRLSet from its binary form.
func Parse(data []byte) (*Set, error) {
	if len(data) < 2 {
		return nil, ErrTruncated
	}
	headerLen := int(binary.LittleEndian.Uint16(data[:2]))
	data = data[2:]
	if len(data) < headerLen {
		return nil, ErrTruncated
	}

	var header Header
	if err := json.Unmarshal(data[:headerLen], &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	data = data[headerLen:]

	revoked := make(map[string][]string)
	for len(data) > 0 {
		if len(data) < spkiHashLen+4 {
			return nil, ErrTruncated
		}
		parent := hex.EncodeToString(data[:spkiHashLen])
		count := binary.LittleEndian.Uint32(data[spkiHashLen : spkiHashLen+4])
		data = data[spkiHashLen+4:]

		serials := make([]string, 0, min(int(count), 1024))
		for range count {
			if len(data) < 1 {
				return nil, ErrTruncated
			}
			n := int(data[0])
			if len(data) < 1+n {
				return nil, ErrTruncated
			}
			serials = append(serials, hex.EncodeToString(data[1:1+n]))
			data = data[1+n:]
		}
		revoked[parent] = append(revoked[parent], serials...)
	}

	return New(header, revoked)
}

// New builds a Set from a header and a map of parent SPKI hash (hex) to revoked
// serials (hex). Blocked SPKIs in the header are base64 SHA-256 values as in the
// published format.
func New(header Header, revoked map[string][]string) (*Set, error) {
	s := &Set{
		header:       header,
		blocked:      make(map[string]struct{}, len(header.BlockedSPKIs)),
		interception: make(map[string]struct{}, len(header.KnownInterceptionSPKIs)),
		revoked:      make(map[string]map[string]struct{}, len(revoked)),
	}

	for _, b := range header.BlockedSPKIs {
		raw, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, fmt.Errorf("%w: blocked SPKI %q: %v", ErrInvalidHeader, b, err)
		}
		s.blocked[hex.EncodeToString(raw)] = struct{}{}
	}
	for _, b := range header.KnownInterceptionSPKIs {
		raw, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, fmt.Errorf("%w: known interception SPKI %q: %v", ErrInvalidHeader, b, err)
		}
		s.interception[hex.EncodeToString(raw)] = struct{}{}
	}

	for parent, serials := range revoked {
		key := strings.ToLower(parent)
		set := s.revoked[key]
		if set == nil {
			set = make(map[string]struct{}, len(serials))
			s.revoked[key] = set
		}
		for _, serial := range serials {
			set[normalizeSerial(serial)] = struct{}{}
		}
	}
	s.header.NumParents = len(s.revoked)

	return s, nil
}

func normalizeSerial(serial string) string {
	serial = strings.ToLower(serial)
	if len(serial)%2 == 1 {
		serial = "0" + serial
	}
	for len(serial) > 2 && strings.HasPrefix(serial, "00") {
		serial = serial[2:]
	}
	return serial
}

// Check implements [Checker].
func (s *Set) Check(issuerSPKIHash, serialHex string) Status {
	spki := strings.ToLower(issuerSPKIHash)
	if _, ok := s.blocked[spki]; ok {
		return RevokedBySPKI
	}
	if serials, ok := s.revoked[spki]; ok {
		if _, ok := serials[normalizeSerial(serialHex)]; ok {
			return RevokedBySerial
		}
	}
	return OK
}

// Sequence implements [Checker].
func (s *Set) Sequence() int64 { return s.header.Sequence }

// KnownInterception implements [InterceptionChecker].
func (s *Set) KnownInterception(spkiHash string) bool {
	_, ok := s.interception[strings.ToLower(spkiHash)]
	return ok
}

// KnownInterceptionCount returns the number of known interception SPKIs.
func (s *Set) KnownInterceptionCount() int { return len(s.interception) }

// Header returns a copy of the set header.
func (s *Set) Header() Header {
	h := s.header
	h.BlockedSPKIs = append([]string(nil), s.header.BlockedSPKIs...)
	h.KnownInterceptionSPKIs = append([]string(nil), s.header.KnownInterceptionSPKIs...)
	return h
}

// Expired reports whether the set is past its NotAfter time.
func (s *Set) Expired(now time.Time) bool {
	return s.header.NotAfter != 0 && !now.Before(time.Unix(s.header.NotAfter, 0))
}

// Len returns the number of revoked serials across all parents.
func (s *Set) Len() int {
	n := 0
	for _, serials := range s.revoked {
		n += len(serials)
	}
	return n
}

// MarshalBinary encodes the set in the published binary layout. Parents and
// serials are written in sorted order so the output is deterministic.
func (s *Set) MarshalBinary() ([]byte, error) {
	header, err := json.Marshal(s.header)
	if err != nil {
		return nil, err
	}
	if len(header) > 0xffff {
		return nil, fmt.Errorf("crlset: header too large (%d bytes)", len(header))
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.Write(header)

	parents := make([]string, 0, len(s.revoked))
	for p := range s.revoked {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	for _, p := range parents {
		raw, err := hex.DecodeString(p)
		if err != nil || len(raw) != spkiHashLen {
			return nil, fmt.Errorf("crlset: invalid parent SPKI hash %q", p)
		}
		buf.Write(raw)

		serials := make([]string, 0, len(s.revoked[p]))
		for serial := range s.revoked[p] {
			serials = append(serials, serial)
		}
		sort.Strings(serials)

		binary.Write(&buf, binary.LittleEndian, uint32(len(serials)))
		for _, serial := range serials {
			if len(serial)%2 == 1 {
				serial = "0" + serial
			}
			rawSerial, err := hex.DecodeString(serial)
			if err != nil || len(rawSerial) > 0xff {
				return nil, fmt.Errorf("crlset: invalid serial %q", serial)
			}
			buf.WriteByte(byte(len(rawSerial)))
			buf.Write(rawSerial)
		}
	}

	return buf.Bytes(), nil
}
