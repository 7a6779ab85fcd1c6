package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the transport layer can map it to a status code in one place.
type Kind int

const (
	// KindInternal is an unexpected failure (I/O, driver, bug). Details are logged, never returned.
	KindInternal Kind = iota
	KindInvalidRequest
	KindSessionNotFound
	KindMetadataMissing
	KindNoChunks
	KindRangeNotSatisfiable
	KindTokenExpired
	KindSignatureInvalid
	KindFilenameMismatch
	KindFileNotFound
	KindAccessDenied
	KindScopeDenied
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindInvalidRequest:      "invalid_request",
	KindSessionNotFound:     "session_not_found",
	KindMetadataMissing:     "metadata_missing",
	KindNoChunks:            "no_chunks",
	KindRangeNotSatisfiable: "range_not_satisfiable",
	KindTokenExpired:        "token_expired",
	KindSignatureInvalid:    "signature_invalid",
	KindFilenameMismatch:    "filename_mismatch",
	KindFileNotFound:        "file_not_found",
	KindAccessDenied:        "access_denied",
	KindScopeDenied:         "scope_denied",
	KindConflict:            "conflict",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token reports whether the kind is one of the token verification failures.
func (k Kind) Token() bool {
	return k == KindTokenExpired || k == KindSignatureInvalid || k == KindFilenameMismatch || k == KindScopeDenied
}

// Error is the single error result type used across components.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "chunk.Put"
	Msg  string // safe, human-readable message
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error for op with the given kind and message.
func E(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Internal wraps err as KindInternal unless it already carries a kind.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Message returns the safe message of err, falling back to the kind name.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Msg != "" {
		return ae.Msg
	}
	return KindOf(err).String()
}
