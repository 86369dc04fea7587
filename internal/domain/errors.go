package domain

import "errors"

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindForbidden
	KindNotFound
	KindInvalidStatus
	KindBadInput
	KindDuplicateKey
	KindBulkWriteFailure
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindInvalidStatus:
		return "InvalidStatus"
	case KindBadInput:
		return "BadInput"
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindBulkWriteFailure:
		return "BulkWriteFailure"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Internal"
	}
}

// Error is the typed failure returned by services. Details is optional
// payload for the caller (e.g. the per-row error list of an import).
type Error struct {
	Kind    ErrorKind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithDetails(d any) *Error {
	e.Details = d
	return e
}

func Forbidden(msg string) *Error     { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func InvalidStatus(msg string) *Error { return &Error{Kind: KindInvalidStatus, Message: msg} }
func BadInput(msg string) *Error      { return &Error{Kind: KindBadInput, Message: msg} }
func Unauthorized(msg string) *Error  { return &Error{Kind: KindUnauthorized, Message: msg} }

func DuplicateKey(msg string, err error) *Error {
	return &Error{Kind: KindDuplicateKey, Message: msg, Err: err}
}

func BulkWriteFailure(msg string, err error) *Error {
	return &Error{Kind: KindBulkWriteFailure, Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf classifies err; anything that is not a *Error is Internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func IsKind(err error, k ErrorKind) bool { return err != nil && KindOf(err) == k }
