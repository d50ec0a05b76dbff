package engine

import (
	"regexp"
	"sort"
	"strings"

	"embermoo/internal/scripting"
)

// Dispatcher gathers the available-action set for a caller and matches a
// line against it in priority order (§4.4). It holds nothing but the shared
// engine state threaded into each ActionContext.
type Dispatcher struct {
	DB      *Database
	Game    *Scheduler
	Senders *SessionRegistry
	Cache   *scripting.Cache
	Config  *Object // the singleton Config object, for master_room lookup
}

// Dispatch tries line against the caller's currently available actions in
// the order fixed by §4.4, running the first match. If nothing matches, the
// session is expected to reply "Huh?" (the caller does that, since only it
// knows how to phrase it for its transport).
func (d *Dispatcher) Dispatch(caller *Object, send func(string), line string) (matched bool, err error) {
	ctx := d.context(caller, send)
	for _, action := range d.gather(caller) {
		ok, runErr := action.Match(ctx, line)
		if ok {
			return true, runErr
		}
	}
	return false, nil
}

func (d *Dispatcher) context(caller *Object, send func(string)) *ActionContext {
	var here *Object
	if caller.HasLocation {
		here = d.DB.Get(caller.Location)
	}
	return &ActionContext{
		DB:      d.DB,
		Game:    d.Game,
		Senders: d.Senders,
		Cache:   d.Cache,
		Envs:    EnvBuilder{DB: d.DB, Game: d.Game, Senders: d.Senders, Cache: d.Cache},
		Caller:  caller,
		Here:    here,
		Send:    send,
	}
}

// gather builds the ordered action list per §4.4 steps 1-6 (step 7, the
// session's own commands, is appended by the session package, which knows
// about help/play and is not an engine concern).
func (d *Dispatcher) gather(caller *Object) []Action {
	var actions []Action

	// 1. Custom commands of the player (own), then the player's built-ins.
	actions = append(actions, d.customActionsOf(caller, CommandFlags{})...)
	for _, b := range PlayerBuiltins() {
		actions = append(actions, b)
	}

	// 2. Custom commands of each thing in the player's pockets, filtered by
	// flag o (owner-only: runs for the player carrying the object).
	for _, id := range caller.Contents {
		thing := d.DB.Get(id)
		if thing == nil {
			continue
		}
		actions = append(actions, d.customActionsFiltered(thing, func(f CommandFlags) bool { return f.Owner })...)
	}

	// 3. Built-ins of all active powers (own, inherited, and powers of
	// things in pockets).
	for _, p := range FlattenPowers(d.DB, caller) {
		for _, b := range p.Commands {
			actions = append(actions, b)
		}
	}

	var here *Object
	if caller.HasLocation {
		here = d.DB.Get(caller.Location)
	}
	if here != nil {
		// 4. Custom commands of things in the current room (flag p), and
		// the room's own built-ins and customs.
		for _, id := range here.Contents {
			thing := d.DB.Get(id)
			if thing == nil || thing.ID == caller.ID {
				continue
			}
			actions = append(actions, d.customActionsFiltered(thing, func(f CommandFlags) bool { return f.Peer })...)
		}
		actions = append(actions, RoomBuiltins()...)

		// 5. When the current location is a thing (nested containment),
		// its customs are filtered by flag i; a room's customs are all kept.
		if here.Kind == KindThing {
			actions = append(actions, d.customActionsFiltered(here, func(f CommandFlags) bool { return f.Interior })...)
		} else {
			actions = append(actions, d.customActionsOf(here, CommandFlags{})...)
		}
	}

	// 6. Things in the globally-configured master room (unfiltered).
	if d.Config != nil && d.Config.MasterRoom != 0 {
		if master := d.DB.Get(d.Config.MasterRoom); master != nil {
			for _, id := range master.Contents {
				thing := d.DB.Get(id)
				if thing == nil {
					continue
				}
				actions = append(actions, d.customActionsOf(thing, CommandFlags{})...)
			}
		}
	}

	return actions
}

func (d *Dispatcher) customActionsOf(owner *Object, _ CommandFlags) []Action {
	return d.customActionsFiltered(owner, func(CommandFlags) bool { return true })
}

func (d *Dispatcher) customActionsFiltered(owner *Object, keep func(CommandFlags) bool) []Action {
	var out []Action
	names := make([]string, 0, len(owner.CustomCommands))
	for name := range owner.CustomCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rec := owner.CustomCommands[name]
		if !keep(rec.Flags) {
			continue
		}
		out = append(out, d.buildAction(rec))
	}
	return out
}

// buildAction turns a persisted CommandRecord back into a live Action. A
// regex matcher stores its compiled pattern; authoring-time validation
// already rejected a bad pattern (cmdMatch), so a compile failure here is
// treated as a non-match rather than a panic — a corrupt record should not
// take down dispatch for every other command.
func (d *Dispatcher) buildAction(rec *CommandRecord) Action {
	envs := EnvBuilder{DB: d.DB, Game: d.Game, Senders: d.Senders, Cache: d.Cache}
	if rec.Regex != "" {
		pattern, err := regexp.Compile(rec.Regex)
		if err != nil {
			pattern = regexp.MustCompile(`$^`) // matches nothing
		}
		return &RegexMatcher{Record: rec, Pattern: pattern, Cache: d.Cache, Envs: envs}
	}
	return &CustomCommand{Record: rec, Cache: d.Cache, Envs: envs}
}

// ActionNames lists the command names in caller's current dispatch set, for
// `help`'s live listing (SUPPLEMENTED FEATURES).
func (d *Dispatcher) ActionNames(caller *Object) []string {
	var names []string
	seen := map[string]bool{}
	for _, action := range d.gather(caller) {
		name := actionName(action)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func actionName(a Action) string {
	switch v := a.(type) {
	case *BuiltinCommand:
		return v.Name
	case *CustomCommand:
		return v.Record.Name
	case *RegexMatcher:
		return v.Record.Name
	default:
		return ""
	}
}

// huh is the reply to a total dispatch miss (§4.4); the session package
// writes the same text itself.
const huh = "Huh?"

// firstWord returns the lowercased first word of line. It is package-private;
// the session package splits lines with its own helper.
func firstWord(line string) string {
	w, _ := splitFirstWord(line)
	return strings.TrimSpace(w)
}
