package voice

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindIO                Kind = "io_failure"
	KindDecode            Kind = "decode_failure"
	KindTranscode         Kind = "transcode_failure"
	KindInvalidLanguage   Kind = "invalid_language"
	KindMissingCredential Kind = "missing_credential"
	KindTransport         Kind = "transport_failure"
	KindProvider          Kind = "provider_failure"
	KindMalformedResponse Kind = "malformed_response"
	KindUnknown           Kind = "unknown"
)

// Error is the single error value surfaced to the HTTP boundary.
type Error struct {
	Kind    Kind
	Op      string // 出错的组件/操作，例如 "speech.transcribe"
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error wrapping cause.
func NewError(kind Kind, op string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// KindOf extracts the classification of err, KindUnknown when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsClientError reports whether the caller caused the failure.
// Only InvalidLanguage is client-caused; everything else is a server failure.
func IsClientError(err error) bool {
	return IsKind(err, KindInvalidLanguage)
}
