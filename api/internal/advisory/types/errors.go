package types

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindUnsupportedInput   Kind = "unsupported_input"
	KindInvalidRequest     Kind = "invalid_request"
	KindModelUnavailable   Kind = "model_unavailable"
	KindModelEmptyResponse Kind = "model_empty_response"
	KindParseFailure       Kind = "parse_failure"
	// KindLocalization is never produced: resolution is total.
	KindLocalization Kind = "localization"
)

// Transient reports whether repeating the model call may succeed.
func (k Kind) Transient() bool {
	return k == KindModelUnavailable || k == KindModelEmptyResponse
}

// Stage is the step of a run that failed. Language resolution is total and has no stage.
type Stage string

const (
	StageNormalizing Stage = "normalizing"
	StagePrompting   Stage = "prompting"
	StageInvoking    Stage = "invoking"
	StageExtracting  Stage = "extracting"
)

// Error is the only error type that crosses the pipeline boundary.
type Error struct {
	Kind     Kind
	Stage    Stage
	Message  string
	Attempts int
	// Raw holds the offending model text for parse failures.
	Raw string
	// StatusCode is the upstream HTTP status when known.
	StatusCode int
	// Provider names the engine that was called, empty before one is chosen.
	Provider string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, ErrParseFailure) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && t.Message == "" && t.Err == nil
	}
	return false
}

var (
	ErrUnsupportedInput   = &Error{Kind: KindUnsupportedInput}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
	ErrModelUnavailable   = &Error{Kind: KindModelUnavailable}
	ErrModelEmptyResponse = &Error{Kind: KindModelEmptyResponse}
	ErrParseFailure       = &Error{Kind: KindParseFailure}
)

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause as the unwrap target without putting its text in Message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
