// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure. Hard and soft fail decisions are
// made on the kind, never on the message.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindMissingIssuer
	KindCertParseError
	KindMalformedSctList
	KindNoSctsFound
	KindEmptyTrustedLogList
	KindPrecertReconstructionFailed
	KindInsufficientScts
	KindInsufficientOperatorDiversity
	KindNoValidScts
	KindEmptyResponse
	KindStapleNotReceived
	KindOCSPFailure
	KindRevoked
	KindRevokedByCrlSet
	KindCrlSetFetchFailed
)

var kindNames = map[Kind]string{
	KindUnknown:                       "Unknown",
	KindTransport:                     "Transport",
	KindMissingIssuer:                 "MissingIssuer",
	KindCertParseError:                "CertParseError",
	KindMalformedSctList:              "MalformedSctList",
	KindNoSctsFound:                   "NoSctsFound",
	KindEmptyTrustedLogList:           "EmptyTrustedLogList",
	KindPrecertReconstructionFailed:   "PrecertReconstructionFailed",
	KindInsufficientScts:              "InsufficientScts",
	KindInsufficientOperatorDiversity: "InsufficientOperatorDiversity",
	KindNoValidScts:                   "NoValidScts",
	KindEmptyResponse:                 "EmptyResponse",
	KindStapleNotReceived:             "StapleNotReceived",
	KindOCSPFailure:                   "OCSPFailure",
	KindRevoked:                       "Revoked",
	KindRevokedByCrlSet:               "RevokedByCrlSet",
	KindCrlSetFetchFailed:             "CrlSetFetchFailed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is matching. Any [*Error] matches the sentinel of its kind.
var (
	ErrTransport                     = &Error{Kind: KindTransport}
	ErrMissingIssuer                 = &Error{Kind: KindMissingIssuer}
	ErrCertParse                     = &Error{Kind: KindCertParseError}
	ErrMalformedSctList              = &Error{Kind: KindMalformedSctList}
	ErrNoSctsFound                   = &Error{Kind: KindNoSctsFound}
	ErrEmptyTrustedLogList           = &Error{Kind: KindEmptyTrustedLogList}
	ErrPrecertReconstructionFailed   = &Error{Kind: KindPrecertReconstructionFailed}
	ErrInsufficientScts              = &Error{Kind: KindInsufficientScts}
	ErrInsufficientOperatorDiversity = &Error{Kind: KindInsufficientOperatorDiversity}
	ErrNoValidScts                   = &Error{Kind: KindNoValidScts}
	ErrEmptyResponse                 = &Error{Kind: KindEmptyResponse}
	ErrStapleNotReceived             = &Error{Kind: KindStapleNotReceived}
	ErrOCSPFailure                   = &Error{Kind: KindOCSPFailure}
	ErrRevoked                       = &Error{Kind: KindRevoked}
	ErrRevokedByCrlSet               = &Error{Kind: KindRevokedByCrlSet}
	ErrCrlSetFetchFailed             = &Error{Kind: KindCrlSetFetchFailed}
)

// Error is a tagged validation failure.
type Error struct {
	// Validator is the name of the validator that failed.
	Validator string
	Kind      Kind
	// Msg is the human readable reason.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

// Errorf builds an [*Error] with a formatted message.
func Errorf(validator string, kind Kind, format string, args ...any) *Error {
	return &Error{Validator: validator, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an [*Error] around cause.
func Wrap(validator string, kind Kind, cause error, msg string) *Error {
	return &Error{Validator: validator, Kind: kind, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Validator == "" {
		return msg
	}
	return "[" + e.Validator + "] " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any [*Error] of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first [*Error] in err's chain, or
// [KindUnknown] when there is none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// IsRevocation reports whether err is a positive revocation signal.
func IsRevocation(err error) bool {
	k := KindOf(err)
	return k == KindRevoked || k == KindRevokedByCrlSet
}
