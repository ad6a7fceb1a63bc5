package engine

import (
	"errors"
	"fmt"
)

// Kind enumerates the fatal, rule-scoped error categories of spec.md §4.1
// "Errors at query level" and §4.2's aggregation-operator check. A Error
// aborts evaluation of the one rule it came from; it never corrupts other
// rules' evaluation (spec.md §7).
type Kind string

const (
	KindUnresolvedTag   Kind = "unresolved_tag"
	KindUnboundTag      Kind = "tag_used_before_binding"
	KindUnknownFoldOp   Kind = "unknown_fold_operator"
	KindUnknownFilterOp Kind = "unknown_filter_operator"
	KindMixedTagDeps    Kind = "mixed_tag_dependencies"
	KindAmbiguousTag    Kind = "ambiguous_tag_producer"
	KindBadRegex        Kind = "invalid_regex"
	KindCancelled       Kind = "cancelled"
)

// Error is a fatal, rule-scoped evaluation error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsCancelled reports whether err is (or wraps) a cooperative-cancellation
// Error.
func IsCancelled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCancelled
}
