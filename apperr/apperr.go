package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error so the REST layer can map it to a status
// code without string matching.
type Kind int

const (
	KindValidation Kind = iota // malformed input
	KindNotFound               // unknown entity
	KindState                  // illegal lifecycle transition
	KindPermission             // caller lacks ownership/participation
	KindConflict               // atomic update retry budget exhausted
)

// Error is a business-rule error with a machine-readable kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Validation reports malformed input (missing reps, unknown template, ...).
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown item/quest/duel/raid/boss/user.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// State reports an illegal lifecycle transition (already claimed, expired, ...).
func State(format string, args ...interface{}) error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

// Permission reports a privileged action attempted by a non-owner.
func Permission(format string, args ...interface{}) error {
	return &Error{Kind: KindPermission, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports that the bounded retry budget for an atomic update ran out.
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err and true if err is an apperr.Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func is(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsState(err error) bool      { return is(err, KindState) }
func IsPermission(err error) bool { return is(err, KindPermission) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
