package apperr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories the services report. The
// handler layer is the only place a Kind is translated into an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindAccountNotFound
	KindSoundNotFound
	KindInputNotFound
	KindInvalidMedia
	KindProcessingFailed
	KindReauthRequired
	KindRefreshFailed
	KindRemoteUploadFailed
	KindConfigMissing
	KindConfigCorrupt
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind carried by err, or KindInternal when err is not an
// *Error produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is lets errors.Is match two *Error values by Kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}
