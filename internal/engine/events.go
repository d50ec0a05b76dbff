package engine

import "embermoo/internal/scripting"

// EventFunc is a host-implemented built-in event handler.
type EventFunc func(ctx *ActionContext, event string, kwargs map[string]interface{}) error

// builtinEvents is the fixed set of class-level handlers consulted when an
// object has no matching custom handler (§4.7). Empty for now — rooms have
// no built-in reaction to "connect"/"tick" beyond what scripts add; this is
// the extension point a future built-in (e.g. a room's automatic "look" on
// connect) would register into.
var builtinEvents = map[Kind]map[string]EventFunc{}

// Dispatch runs event on obj: the custom handler first, then the class's
// built-in handler (§4.7). A Failure raised by either interrupts and is
// returned to the caller's send; a Failure from the custom handler also
// keeps the built-in from running. Any other error is reported as
// "<kind>: <message>" and swallowed, matching §4.7 and design note #4 (only
// ActionFailed interrupts; normal completion does not skip the built-in).
func Dispatch(ctx *ActionContext, obj *Object, cache *scripting.Cache, event string, kwargs map[string]interface{}) {
	if source, ok := obj.CustomEvents[event]; ok {
		handler := &EventHandler{
			Record: &CommandRecord{Name: event, Source: source, OwnerID: obj.ID},
			Cache:  cache,
			Envs:   ctx.Envs,
		}
		if runHandler(ctx, handler, event, kwargs) {
			return
		}
	}
	if handlers, ok := builtinEvents[obj.Kind]; ok {
		if fn, ok := handlers[event]; ok {
			runBuiltinHandler(ctx, fn, event, kwargs)
		}
	}
}

// runHandler reports whether the handler was interrupted by a Failure.
func runHandler(ctx *ActionContext, handler *EventHandler, event string, kwargs map[string]interface{}) bool {
	saved := ctx.Caller
	defer func() { ctx.Caller = saved }()
	if err := handler.Run(ctx, event, kwargs); err != nil {
		reportEventError(ctx, err)
		_, failed := scripting.AsFailure(err)
		return failed
	}
	return false
}

func runBuiltinHandler(ctx *ActionContext, fn EventFunc, event string, kwargs map[string]interface{}) {
	if err := fn(ctx, event, kwargs); err != nil {
		reportEventError(ctx, err)
	}
}

// reportEventError implements §4.7's error surface: a Failure's message
// goes straight to the caller; anything else is formatted as
// "<kind>: <message>" per §7.2 and does not propagate further.
func reportEventError(ctx *ActionContext, err error) {
	if ctx.Send == nil {
		return
	}
	if f, ok := scripting.AsFailure(err); ok {
		ctx.Send(f.Msg)
		return
	}
	ctx.Send(ScriptError(err))
}
