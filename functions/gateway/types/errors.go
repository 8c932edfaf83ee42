package types

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, machine-readable error classification returned to
// API clients. Values are part of the public contract, do not rename.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindNotFound         ErrorKind = "not_found"
	KindForbidden        ErrorKind = "forbidden"
	KindConflict         ErrorKind = "conflict"
	KindPrecondition     ErrorKind = "precondition"
	KindCapacityExceeded ErrorKind = "capacity_exceeded"
	KindTimeout          ErrorKind = "timeout"
	KindInternal         ErrorKind = "internal"
)

type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

func WrapDomainError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the classification of err, or KindInternal when err carries
// no DomainError anywhere in its chain.
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
