package scripting

import "fmt"

// Proxy is the filtered view of a world object handed to user scripts. It
// never exposes transient internals (sessions, caches, locks) — only what
// the owning package chooses to wire through Lookup/Assign/Invoke.
//
// Attributes whose name starts with "_" are never resolved: Lookup and
// Assign both refuse them before calling into the backing closures, so the
// engine package does not need to repeat that check at every call site.
type Proxy struct {
	repr   string
	lookup func(name string) (interface{}, bool)
	assign func(name string, value interface{}) error
	invoke func(method string, args []interface{}) (interface{}, error)
}

// NewProxy builds a proxy backed by the given accessors. Any of lookup,
// assign or invoke may be nil, in which case the corresponding operation
// always fails.
func NewProxy(repr string, lookup func(string) (interface{}, bool), assign func(string, interface{}) error, invoke func(string, []interface{}) (interface{}, error)) *Proxy {
	return &Proxy{repr: repr, lookup: lookup, assign: assign, invoke: invoke}
}

func (p *Proxy) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.repr
}

// Attr resolves a whitelisted attribute. The second return is false if the
// attribute does not exist or is private (leading underscore).
func (p *Proxy) Attr(name string) (interface{}, bool) {
	if p == nil || name == "" || name[0] == '_' || p.lookup == nil {
		return nil, false
	}
	return p.lookup(name)
}

// SetAttr writes an attribute through the proxy to the underlying object's
// attribute store.
func (p *Proxy) SetAttr(name string, value interface{}) error {
	if p == nil || name == "" || name[0] == '_' {
		return fmt.Errorf("no such attribute %q", name)
	}
	if p.assign == nil {
		return fmt.Errorf("%s is read-only", name)
	}
	return p.assign(name, value)
}

// Call invokes a whitelisted method on the underlying object (e.g. room.Emit).
func (p *Proxy) Call(method string, args ...interface{}) (interface{}, error) {
	if p == nil || method == "" || method[0] == '_' || p.invoke == nil {
		return nil, fmt.Errorf("no such method %q", method)
	}
	return p.invoke(method, args)
}
