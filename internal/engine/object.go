package engine

import (
	"strings"

	"embermoo/internal/scripting"
)

// ID is the stable, monotonic, never-reused identifier the database assigns
// to every object at insertion (§3).
type ID uint64

// Kind is the closed set of object variants exposed to users as FancyName.
type Kind string

const (
	KindObject Kind = "object"
	KindThing  Kind = "thing"
	KindRoom   Kind = "room"
	KindPlayer Kind = "player"
	KindConfig Kind = "config"
)

// Object is the tagged variant covering every entity kind (§9 design note:
// "polymorphism over objects is a tagged variant carrying a common header
// ... and variant-specific tails"). A single struct keeps persistence and
// dispatch simple — there is no dynamic attribute access in Go, so an
// interface-per-kind hierarchy would just relocate this same switch into
// every call site instead of removing it.
type Object struct {
	ID          ID     `json:"id"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Flags          map[string]bool           `json:"flags"`
	Attributes     map[string]interface{}    `json:"attributes"`
	CustomCommands map[string]*CommandRecord `json:"custom_commands"`
	CustomEvents   map[string]string         `json:"custom_events"`

	Parent ID   `json:"parent,omitempty"`
	HasParent bool `json:"has_parent,omitempty"`

	// Room tail.
	Contents []ID `json:"contents,omitempty"`
	Exits    map[string]ID `json:"exits,omitempty"`

	// Thing/Player tail.
	Location    ID   `json:"location,omitempty"`
	HasLocation bool `json:"has_location,omitempty"`
	Powers      []string `json:"powers,omitempty"`

	// Player tail only.
	Online bool `json:"-"`

	// Config tail. Zero is the "unset" sentinel for both: id 0 is never
	// assigned (the database's first Add yields id 1).
	DefaultRoom ID `json:"default_room,omitempty"`
	MasterRoom  ID `json:"master_room,omitempty"`
}

// NewObject builds a fresh, un-inserted object of the given kind with empty
// collections. Callers pass it to Database.Add to obtain an id.
func NewObject(kind Kind, name, description string) *Object {
	return &Object{
		Kind:           kind,
		Name:           name,
		Description:    description,
		Flags:          map[string]bool{},
		Attributes:     map[string]interface{}{},
		CustomCommands: map[string]*CommandRecord{},
		CustomEvents:   map[string]string{},
		Exits:          map[string]ID{},
	}
}

// backfill initializes any nil collection that a fresh object of the same
// kind would have populated, per invariant 5; scalar fields are left as
// loaded. It is run
// once per object immediately after load.
func (o *Object) backfill() {
	fresh := NewObject(o.Kind, o.Name, o.Description)
	if o.Flags == nil {
		o.Flags = fresh.Flags
	}
	if o.Attributes == nil {
		o.Attributes = fresh.Attributes
	}
	if o.CustomCommands == nil {
		o.CustomCommands = fresh.CustomCommands
	}
	if o.CustomEvents == nil {
		o.CustomEvents = fresh.CustomEvents
	}
	if o.Exits == nil && (o.Kind == KindRoom) {
		o.Exits = fresh.Exits
	}
}

// Clone builds a fresh, uninserted object of the same concrete kind and
// name, with flags, attributes and exits deep-copied and persisted custom
// commands carried over (§4.2). It does not call Database.Add, and it does
// not assign a final owner to the copied commands — RebindOwner does that
// once the clone has an id. Location and contents are left at their zero
// value: the clone starts out nowhere and holding nothing.
func (o *Object) Clone() *Object {
	clone := &Object{
		Kind:           o.Kind,
		Name:           o.Name,
		Description:    o.Description,
		Flags:          make(map[string]bool, len(o.Flags)),
		Attributes:     make(map[string]interface{}, len(o.Attributes)),
		CustomCommands: make(map[string]*CommandRecord, len(o.CustomCommands)),
		CustomEvents:   make(map[string]string, len(o.CustomEvents)),
		Parent:         o.Parent,
		HasParent:      o.HasParent,
		Powers:         append([]string(nil), o.Powers...),
	}
	for k, v := range o.Flags {
		clone.Flags[k] = v
	}
	for k, v := range o.Attributes {
		clone.Attributes[k] = deepCopyAttr(v)
	}
	for k, v := range o.CustomEvents {
		clone.CustomEvents[k] = v
	}
	for k, rec := range o.CustomCommands {
		cp := *rec
		clone.CustomCommands[k] = &cp
	}
	if o.Kind == KindRoom {
		clone.Exits = make(map[string]ID, len(o.Exits))
		for k, v := range o.Exits {
			clone.Exits[k] = v
		}
	}
	return clone
}

// RebindOwner points every custom command o carries back at o's own id, the
// step a freshly inserted clone needs so its scripted commands run with
// self bound to the clone rather than the object it was cloned from.
func (o *Object) RebindOwner() {
	for _, rec := range o.CustomCommands {
		rec.OwnerID = o.ID
	}
}

// deepCopyAttr copies a stored attribute value recursively: nested lists and
// mappings get their own backing arrays/maps, and a Lambda gets its own
// struct, so mutating the clone's attribute tree never reaches back into the
// original's (§4.2).
func deepCopyAttr(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = deepCopyAttr(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopyAttr(item)
		}
		return out
	case *Lambda:
		cp := *val
		return &cp
	default:
		return val
	}
}

// SetFlag is idempotent (§8 round-trip property).
func (o *Object) SetFlag(flag string) {
	o.Flags[flag] = true
}

// ResetFlag on an absent flag is a no-op (§8 round-trip property).
func (o *Object) ResetFlag(flag string) {
	delete(o.Flags, flag)
}

// ownFlag reports whether flag is set directly on this object, ignoring
// parent/power fall-through.
func (o *Object) ownFlag(flag string) bool {
	return o.Flags[flag]
}

// attr resolves an attribute on this object without walking the parent
// chain. Names beginning with "_" are never resolved through this path
// (§4.2); callers that need internal fields use the Go struct directly.
func (o *Object) attr(name string) (interface{}, bool) {
	if name == "" || name[0] == '_' {
		return nil, false
	}
	v, ok := o.Attributes[name]
	return v, ok
}

// setAttr writes an attribute, refusing private names. A script assigning
// an object proxy (e.g. `self.friend = here`) stores the dbref it names
// instead of the live proxy: attributes persist to disk, and a proxy value
// carries closures over the database and scheduler that must never be
// captured in the object graph (§9).
func (o *Object) setAttr(name string, value interface{}) error {
	if name == "" || name[0] == '_' {
		return ErrNoSuchAttribute(name)
	}
	if proxy, ok := value.(*scripting.Proxy); ok {
		if id, ok := proxy.Attr("id"); ok {
			value = id
		} else {
			value = proxy.String()
		}
	}
	o.Attributes[name] = value
	return nil
}

// delAttr removes an attribute, reporting ErrNoSuchAttribute if absent.
func (o *Object) delAttr(name string) error {
	if _, ok := o.attr(name); !ok {
		return ErrNoSuchAttribute(name)
	}
	delete(o.Attributes, name)
	return nil
}

// splitFirstWord splits line into its lowercased first whitespace-delimited
// word and the remainder with its leading whitespace trimmed (trailing
// whitespace is kept), per §4.3's built-in
// command match rule.
func splitFirstWord(line string) (string, string) {
	trimmed := strings.TrimLeft(line, " \t")
	idx := strings.IndexAny(trimmed, " \t")
	if idx < 0 {
		return strings.ToLower(trimmed), ""
	}
	return strings.ToLower(trimmed[:idx]), strings.TrimLeft(trimmed[idx+1:], " \t")
}
