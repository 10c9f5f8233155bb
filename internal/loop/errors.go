package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
)

// ErrorKind is the failure taxonomy at the reasoning-loop boundary. Every
// error leaving the loop carries exactly one kind; nothing escapes untyped.
type ErrorKind string

const (
	KindParse           ErrorKind = "parse_error"
	KindQuerySyntax     ErrorKind = "query_syntax"
	KindRateLimited     ErrorKind = "rate_limited"
	KindUnavailable     ErrorKind = "unavailable"
	KindContextOverflow ErrorKind = "context_overflow"
	KindTimeout         ErrorKind = "timeout"
)

// Error is a typed loop failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from any error, mapping foreign errors into the
// taxonomy. Unknown errors are treated as upstream unavailability.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRateLimited() {
			return KindRateLimited
		}
		if apiErr.IsTransient() {
			return KindUnavailable
		}
		return KindUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindUnavailable
}

// transient reports whether a failure of this kind is worth another attempt.
func transient(kind ErrorKind) bool {
	return kind == KindRateLimited || kind == KindUnavailable
}

// UserMessage maps a typed failure to the short, honest explanation shown to
// the user. Never a guess, never a fabricated answer.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindRateLimited:
		return "I'm being rate limited by my upstream model right now. Please try again in a minute."
	case KindUnavailable:
		return "I couldn't reach the knowledge store or the model. Please try again shortly."
	case KindTimeout:
		return "That question took too long to answer and I had to stop. Try narrowing it down."
	case KindQuerySyntax:
		return "I couldn't build a working query for that question. Try rephrasing it."
	case KindParse:
		return "I couldn't make sense of the source material for that request."
	default:
		return "Something went wrong answering that. Please try again."
	}
}
