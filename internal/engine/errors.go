package engine

import (
	"fmt"

	"embermoo/internal/scripting"
)

// Failure is the ActionFailed-equivalent signal (§7.1): a user-visible
// failure raised by command or script logic. It propagates to the
// dispatching session, which writes Msg to the client verbatim, and never
// corrupts state — callers must run the check that raises it before any
// externally visible effect.
type Failure struct {
	Kind string
	Msg  string
}

func (f *Failure) Error() string { return f.Msg }

func fail(kind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ErrObjectNotFound reports that a name or #id did not resolve to anything.
func ErrObjectNotFound(what string) *Failure {
	return fail("ObjectNotFound", "I don't see %q here.", what)
}

// ErrAmbiguous reports more than one candidate matched, listing them.
func ErrAmbiguous(candidates []string) *Failure {
	msg := "Which one?\nChoices are: "
	for i, c := range candidates {
		if i > 0 {
			msg += ", "
		}
		msg += c
	}
	return fail("Ambiguous", "%s", msg)
}

// ErrBadSyntax reports a malformed command invocation.
func ErrBadSyntax(usage string) *Failure {
	return fail("BadSyntax", "Usage: %s", usage)
}

// ErrNotPermitted reports a missing power/flag for the attempted action.
func ErrNotPermitted() *Failure {
	return fail("NotPermitted", "You can't do that.")
}

// ErrNotHere reports an action that requires the target to be in scope.
func ErrNotHere() *Failure {
	return fail("NotHere", "That's not here.")
}

// ErrTooBig reports §8's `take` on a `big`-flagged object.
func ErrTooBig() *Failure {
	return fail("TooBig", "That's too big to carry.")
}

// ErrNoSuchAttribute reports a setattr/delattr/examine miss.
func ErrNoSuchAttribute(name string) *Failure {
	return fail("NoSuchAttribute", "No such attribute %q.", name)
}

// ErrAlreadyOnline reports a `play` attempt on a character with a live
// session already bound, per §4.9 and invariant 4 (no override/takeover).
func ErrAlreadyOnline(name string) *Failure {
	return fail("AlreadyOnline", "%s is already connected.", name)
}

// ScriptError formats a non-Failure error escaping user code as
// "<kind>: <message>" per §7.2.
func ScriptError(err error) string {
	return fmt.Sprintf("%T: %s", err, err.Error())
}

// DispatchReply renders the message a session's dispatch boundary (§7's
// propagation policy) should send to its client for err: an engine.Failure
// or a scripting.Failure surfaces its message verbatim; anything else is
// formatted as a generic script error.
func DispatchReply(err error) string {
	if f, ok := err.(*Failure); ok {
		return f.Msg
	}
	if f, ok := scripting.AsFailure(err); ok {
		return f.Msg
	}
	return ScriptError(err)
}
