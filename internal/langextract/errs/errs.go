// Package errs defines the error taxonomy of the extraction core (§4.J).
// Mirrors the teacher's flat sentinel-error block in internal/models/errors.go,
// generalized with a Kind tag and an optional provider label and cause, since
// the core needs richer classification than the teacher's CRUD errors.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Kinds never carry user data beyond short
// identifiers (§4.J).
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindInvalidInput   Kind = "invalid_input"
	KindNetwork        Kind = "network"
	KindParsing        Kind = "parsing"
	KindSerialization  Kind = "serialization"
	KindProcessing     Kind = "processing"
	KindTokenization   Kind = "tokenization"
	KindChunking       Kind = "chunking"
	KindInference      Kind = "inference"
)

// Sentinels for errors.Is matching against a Kind regardless of message.
var (
	ErrConfiguration = errors.New(string(KindConfiguration))
	ErrInvalidInput  = errors.New(string(KindInvalidInput))
	ErrNetwork       = errors.New(string(KindNetwork))
	ErrParsing       = errors.New(string(KindParsing))
	ErrSerialization = errors.New(string(KindSerialization))
	ErrProcessing    = errors.New(string(KindProcessing))
	ErrTokenization  = errors.New(string(KindTokenization))
	ErrChunking      = errors.New(string(KindChunking))
	ErrInference     = errors.New(string(KindInference))
)

func sentinelFor(k Kind) error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindInvalidInput:
		return ErrInvalidInput
	case KindNetwork:
		return ErrNetwork
	case KindParsing:
		return ErrParsing
	case KindSerialization:
		return ErrSerialization
	case KindProcessing:
		return ErrProcessing
	case KindTokenization:
		return ErrTokenization
	case KindChunking:
		return ErrChunking
	case KindInference:
		return ErrInference
	default:
		return ErrProcessing
	}
}

// Error is the single error value the core ever returns to a caller — one
// kind tag and a human message, never a panic (§7).
type Error struct {
	Kind     Kind
	Message  string
	Provider string
	Cause    error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s [%s/%s]: %v", e.Message, e.Kind, e.Provider, e.Cause)
		}
		return fmt.Sprintf("%s [%s/%s]", e.Message, e.Kind, e.Provider)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return sentinelFor(e.Kind)
}

// New constructs an Error of the given kind with no cause or provider tag.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WrapProvider constructs an Error of the given kind (typically
// KindInference) tagged with the provider name.
func WrapProvider(kind Kind, message, provider string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Provider: provider, Cause: cause}
}

// Is allows errors.Is(err, errs.ErrParsing) style matching directly against
// an *Error without unwrapping, since Unwrap already returns the sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(sentinelFor(e.Kind), target)
}
