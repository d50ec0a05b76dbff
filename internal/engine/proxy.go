package engine

import (
	"fmt"
	"time"

	"embermoo/internal/scripting"
)

// EnvBuilder assembles the scripting environment map described in §4.8:
// self, caller, here, db, game, and the invocation-specific extras (send,
// groups, event kwargs). It is the one place that knows how to turn engine
// types into scripting.Proxy values, keeping the scripting package itself
// free of any dependency on the object model (see scripting.Proxy's doc).
type EnvBuilder struct {
	DB      *Database
	Game    *Scheduler
	Senders *SessionRegistry
	Cache   *scripting.Cache
}

// objectProxy wraps obj so that script code sees only whitelisted fields and
// the parent-fallthrough attribute chain, never engine internals.
func (e EnvBuilder) objectProxy(obj *Object) *scripting.Proxy {
	if obj == nil {
		return nil
	}
	repr := fmt.Sprintf("#%d %s", obj.ID, obj.Name)
	lookup := func(name string) (interface{}, bool) {
		switch name {
		case "id":
			return uint64(obj.ID), true
		case "name":
			return obj.Name, true
		case "description":
			return obj.Description, true
		case "kind":
			return string(obj.Kind), true
		}
		return e.resolveAttr(obj, name)
	}
	assign := func(name string, value interface{}) error {
		switch name {
		case "name":
			obj.Name = fmt.Sprint(value)
			return nil
		case "description":
			obj.Description = fmt.Sprint(value)
			return nil
		}
		return obj.setAttr(name, value)
	}
	invoke := func(method string, args []interface{}) (interface{}, error) {
		return e.invokeMethod(obj, method, args)
	}
	return scripting.NewProxy(repr, lookup, assign, invoke)
}

// resolveAttr walks the parent chain, bounded by depth to guard against a
// cycle slipping past authoring-time checks (§9). A *Lambda value found
// along the way is evaluated transparently: a script reading an attribute
// never sees the callable, only the value it produces (§4.3 dynamic
// attributes). The owning object stands in for self/caller/here, since a
// plain attribute read has no invoking player to bind.
func (e EnvBuilder) resolveAttr(obj *Object, name string) (interface{}, bool) {
	const maxDepth = 64
	cur := obj
	for depth := 0; depth < maxDepth && cur != nil; depth++ {
		if v, ok := cur.attr(name); ok {
			if lambda, ok := v.(*Lambda); ok {
				return e.evalLambda(obj, lambda)
			}
			return v, true
		}
		if !cur.HasParent {
			return nil, false
		}
		cur = e.DB.Get(cur.Parent)
	}
	return nil, false
}

// evalLambda runs lambda with owner standing in for self/caller/here.
func (e EnvBuilder) evalLambda(owner *Object, lambda *Lambda) (interface{}, bool) {
	ctx := &ActionContext{DB: e.DB, Game: e.Game, Senders: e.Senders, Cache: e.Cache, Envs: e, Caller: owner, Here: owner}
	result, err := lambda.Call(ctx)
	if err != nil {
		return nil, false
	}
	return result, true
}

// HasFlag reports whether flag is set on obj directly, on any ancestor in
// its parent chain, or (for players and things) on any power the object
// bears (§4.2).
func (e EnvBuilder) HasFlag(obj *Object, flag string) bool {
	const maxDepth = 64
	cur := obj
	for depth := 0; depth < maxDepth && cur != nil; depth++ {
		if cur.ownFlag(flag) {
			return true
		}
		if !cur.HasParent {
			break
		}
		cur = e.DB.Get(cur.Parent)
	}
	if obj.Kind == KindPlayer || obj.Kind == KindThing {
		for _, p := range FlattenPowers(e.DB, obj) {
			if p.Flags[flag] {
				return true
			}
		}
	}
	return false
}

// invokeMethod implements the small whitelist of methods scripts may call on
// an object proxy: room/thing broadcast, flag queries and cloning.
func (e EnvBuilder) invokeMethod(obj *Object, method string, args []interface{}) (interface{}, error) {
	switch method {
	case "Emit":
		text := joinArgs(args)
		e.broadcastRoom(obj, text, nil)
		return nil, nil
	case "HasFlag":
		if len(args) != 1 {
			return nil, fmt.Errorf("HasFlag takes one argument")
		}
		return e.HasFlag(obj, fmt.Sprint(args[0])), nil
	case "Clone":
		// Object.Clone (§4.2) does not enter the database on its own, but a
		// script has no way to name an object that isn't in it — so the
		// scripted form inserts immediately and rebinds ownership, unlike
		// the bare Clone()/RebindOwner() pair cmdClone calls by hand.
		clone := obj.Clone()
		e.DB.Add(clone)
		clone.RebindOwner()
		return e.objectProxy(clone), nil
	default:
		return nil, fmt.Errorf("no such method %q", method)
	}
}

func joinArgs(args []interface{}) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprint(a)
	}
	return out
}

// broadcastRoom sends text to every connected player located in obj (if obj
// is itself a room) or in obj's location (if obj is locatable), excluding
// exclude if non-nil.
func (e EnvBuilder) broadcastRoom(obj *Object, text string, exclude *Object) {
	room := obj
	if obj.Kind != KindRoom {
		if !obj.HasLocation {
			return
		}
		room = e.DB.Get(obj.Location)
	}
	if room == nil {
		return
	}
	for _, id := range room.Contents {
		occupant := e.DB.Get(id)
		if occupant == nil || occupant.Kind != KindPlayer || !occupant.Online {
			continue
		}
		if exclude != nil && occupant.ID == exclude.ID {
			continue
		}
		if send, ok := e.Senders.Get(occupant.ID); ok {
			send(text)
		}
	}
}

// dbProxy wraps the database as the "db" binding: Get and Search over
// proxy-wrapped results (§4.8). Adding and removing objects is not exposed
// through this binding.
func (e EnvBuilder) dbProxy() *scripting.Proxy {
	lookup := func(name string) (interface{}, bool) { return nil, false }
	invoke := func(method string, args []interface{}) (interface{}, error) {
		switch method {
		case "Get":
			if len(args) != 1 {
				return nil, fmt.Errorf("Get takes one argument")
			}
			id, ok := toID(args[0])
			if !ok {
				return nil, fmt.Errorf("Get: not an id")
			}
			obj := e.DB.Get(id)
			if obj == nil {
				return nil, nil
			}
			return e.objectProxy(obj), nil
		case "Search":
			if len(args) != 1 {
				return nil, fmt.Errorf("Search takes one argument")
			}
			results := e.DB.Search(fmt.Sprint(args[0]), "")
			out := make([]interface{}, len(results))
			for i, r := range results {
				out[i] = e.objectProxy(r)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("no such method %q", method)
		}
	}
	return scripting.NewProxy("db", lookup, nil, invoke)
}

// gameProxy wraps the scheduler as the "game" binding: schedule(delay, fn).
func (e EnvBuilder) gameProxy() *scripting.Proxy {
	invoke := func(method string, args []interface{}) (interface{}, error) {
		if method != "Schedule" {
			return nil, fmt.Errorf("no such method %q", method)
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("Schedule takes (delaySeconds, callback)")
		}
		seconds, ok := toFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("Schedule: delay must be numeric")
		}
		cb, ok := args[1].(func())
		if !ok {
			return nil, fmt.Errorf("Schedule: callback must be func()")
		}
		e.Game.Schedule(secondsToDuration(seconds), cb)
		return nil, nil
	}
	return scripting.NewProxy("game", func(string) (interface{}, bool) { return nil, false }, nil, invoke)
}

// CommandEnv builds the environment for a custom command or regex matcher.
// owner is the object the command is authored on (commands.py:run_code binds
// "self" to the owner, "caller" to the invoking player — they differ
// whenever the command runs on something other than the caller itself, e.g.
// `cmd #3 greet`).
func (e EnvBuilder) CommandEnv(ctx *ActionContext, owner *Object, arg string, groups []string) map[string]interface{} {
	env := e.baseEnv(ctx, owner)
	env["arg"] = arg
	if groups != nil {
		env["groups"] = groups
	}
	return env
}

// EventEnv builds the environment for an event handler invocation.
func (e EnvBuilder) EventEnv(ctx *ActionContext, owner *Object, event string, kwargs map[string]interface{}) map[string]interface{} {
	env := e.baseEnv(ctx, owner)
	env["event"] = event
	for k, v := range kwargs {
		env[k] = v
	}
	return env
}

// LambdaEnv builds the environment for a dynamic (lambda) attribute eval.
func (e EnvBuilder) LambdaEnv(ctx *ActionContext, owner *Object) map[string]interface{} {
	return e.baseEnv(ctx, owner)
}

// baseEnv binds self to owner's proxy and caller to the invoking player's,
// per §4.8; they are the same object only when a command/handler happens to
// be authored directly on the caller.
func (e EnvBuilder) baseEnv(ctx *ActionContext, owner *Object) map[string]interface{} {
	env := map[string]interface{}{
		"self":   e.objectProxy(owner),
		"caller": e.objectProxy(ctx.Caller),
		"here":   e.objectProxy(ctx.Here),
		"db":     e.dbProxy(),
		"game":   e.gameProxy(),
	}
	if ctx.Send != nil {
		env["send"] = ctx.Send
	}
	return env
}

func toID(v interface{}) (ID, bool) {
	switch n := v.(type) {
	case uint64:
		return ID(n), true
	case int:
		return ID(n), true
	case int64:
		return ID(n), true
	case float64:
		return ID(n), true
	}
	return 0, false
}

func secondsToDuration(seconds float64) (d time.Duration) {
	return time.Duration(seconds * float64(time.Second))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
