// Package apperr defines the typed failures every rule violation in the
// game core is reported as. Handlers map kinds to transport status codes;
// the room service relies on kinds to decide what is retryable.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	// KindValidation covers malformed input: bad room codes, empty names,
	// unknown ship types.
	KindValidation Kind = iota
	// KindIllegalAction covers well-formed requests that violate turn,
	// placement or ability rules.
	KindIllegalAction
	// KindNotFound covers missing rooms, players and abilities.
	KindNotFound
	// KindConflict covers duplicate room codes, lost conditional writes
	// and already-targeted cells raced by two clients.
	KindConflict
	// KindAuthorization covers non-admin callers invoking admin actions.
	KindAuthorization
	// KindInfeasible covers an exhausted auto-placement retry budget.
	KindInfeasible
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindIllegalAction:
		return "illegal_action"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindInfeasible:
		return "infeasible"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func IllegalAction(format string, args ...any) *Error {
	return New(KindIllegalAction, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func Authorization(format string, args ...any) *Error {
	return New(KindAuthorization, format, args...)
}

func Infeasible(format string, args ...any) *Error {
	return New(KindInfeasible, format, args...)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
