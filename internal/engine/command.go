package engine

import (
	"fmt"
	"regexp"
	"strings"

	"embermoo/internal/scripting"
)

// ActionContext is everything an Action needs to decide whether it matches
// and, if so, to run: the caller (player), where the command was found
// (owner), the database, the scheduler, and a sink back to the caller.
type ActionContext struct {
	DB      *Database
	Game    *Scheduler
	Senders *SessionRegistry
	Cache   *scripting.Cache
	Envs    EnvBuilder
	Caller  *Object
	Here    *Object
	Send    func(string)
}

// Action is the match-and-run contract shared by every dispatchable command
// (§4.3). A single method both decides and executes: there is no separate
// "can this run" query, matching the original's match(caller, line) -> bool
// semantics adapted to report an error instead of swallowing it silently.
type Action interface {
	// Match reports whether line was consumed by this action. If matched is
	// true, the action has already executed (or is in the process of
	// executing) and err carries any Failure or script error raised.
	Match(ctx *ActionContext, line string) (matched bool, err error)

	// Flags returns the o/p/i filter flags (§4.3) governing when this
	// action is visible to the dispatch pipeline.
	Flags() CommandFlags
}

// CommandFlags is the {o,p,i} filter set on a command.
type CommandFlags struct {
	Owner    bool // o: runs for the player carrying/owning the object
	Peer     bool // p: runs for other players in the same room
	Interior bool // i: runs when the caller is inside the owning object
}

// ParseCommandFlags decodes a trailing ":oflags" suffix as written in the
// `cmd`/`match` authoring syntax (§6), e.g. "wave:op".
func ParseCommandFlags(s string) CommandFlags {
	var f CommandFlags
	for _, r := range s {
		switch r {
		case 'o':
			f.Owner = true
		case 'p':
			f.Peer = true
		case 'i':
			f.Interior = true
		}
	}
	return f
}

// CommandRecord is the persisted form of a user-authored custom command or
// regex matcher: source text plus the id of the owning object, never a
// compiled callable (§9 design note on runtime-authored scripts).
type CommandRecord struct {
	Name    string       `json:"name"`
	Regex   string       `json:"regex,omitempty"`
	Source  string       `json:"source"`
	Flags   CommandFlags `json:"flags"`
	OwnerID ID           `json:"owner_id"`
}

// CustomCommand wraps a CommandRecord compiled against the program cache and
// matched by a literal command-name prefix (the first word of the line).
type CustomCommand struct {
	Record *CommandRecord
	Cache  *scripting.Cache
	Envs   EnvBuilder
}

func (c *CustomCommand) Flags() CommandFlags { return c.Record.Flags }

func (c *CustomCommand) Match(ctx *ActionContext, line string) (bool, error) {
	word, rest := splitFirstWord(line)
	if word != strings.ToLower(c.Record.Name) {
		return false, nil
	}
	return true, c.run(ctx, rest, nil)
}

func (c *CustomCommand) run(ctx *ActionContext, arg string, groups []string) error {
	program, err := c.Cache.Compile(scripting.Unescape(c.Record.Source))
	if err != nil {
		return err
	}
	owner := ctx.DB.Get(c.Record.OwnerID)
	env := c.Envs.CommandEnv(ctx, owner, arg, groups)
	_, err = program.Run(env)
	return err
}

// RegexMatcher matches the whole line against an authored regular
// expression; on a hit the code runs with "groups" bound to the capture
// list.
type RegexMatcher struct {
	Record  *CommandRecord
	Pattern *regexp.Regexp
	Cache   *scripting.Cache
	Envs    EnvBuilder
}

func (m *RegexMatcher) Flags() CommandFlags { return m.Record.Flags }

func (m *RegexMatcher) Match(ctx *ActionContext, line string) (bool, error) {
	groups := m.Pattern.FindStringSubmatch(line)
	if groups == nil {
		return false, nil
	}
	program, err := m.Cache.Compile(scripting.Unescape(m.Record.Source))
	if err != nil {
		return true, err
	}
	owner := ctx.DB.Get(m.Record.OwnerID)
	env := m.Envs.CommandEnv(ctx, owner, line, groups[1:])
	_, err = program.Run(env)
	return true, err
}

// BuiltinFunc is a host-implemented command body.
type BuiltinFunc func(ctx *ActionContext, arg string) error

// BuiltinCommand matches on a single-token prefix and runs a bound Go
// function with the remainder of the line, the idiomatic analogue of the
// original's bound-method built-ins and "wrapper" commands alike — in Go a
// plain function value already covers both cases.
type BuiltinCommand struct {
	Name string
	Fn   BuiltinFunc
	Flag CommandFlags
}

func (b *BuiltinCommand) Flags() CommandFlags { return b.Flag }

func (b *BuiltinCommand) Match(ctx *ActionContext, line string) (bool, error) {
	word, rest := splitFirstWord(line)
	if word != b.Name {
		return false, nil
	}
	return true, b.Fn(ctx, rest)
}

// EventHandler is not matched against input; it is invoked directly by
// Object.Dispatch (§4.7).
type EventHandler struct {
	Record *CommandRecord
	Cache  *scripting.Cache
	Envs   EnvBuilder
}

func (h *EventHandler) Flags() CommandFlags { return CommandFlags{} }

// Match always reports false: event handlers never participate in line
// dispatch.
func (h *EventHandler) Match(ctx *ActionContext, line string) (bool, error) {
	return false, nil
}

// Run executes the handler's source with the event's kwargs bound into the
// environment in addition to the usual self/caller/here.
func (h *EventHandler) Run(ctx *ActionContext, event string, kwargs map[string]interface{}) error {
	program, err := h.Cache.Compile(scripting.Unescape(h.Record.Source))
	if err != nil {
		return err
	}
	owner := ctx.DB.Get(h.Record.OwnerID)
	env := h.Envs.EventEnv(ctx, owner, event, kwargs)
	_, err = program.Run(env)
	return err
}

// Answer is a self-removing one-shot command matching a closed set of
// literal replies (yes/no synonyms, etc). It self-removes before invoking
// its callback to avoid re-entrancy (§9 design note).
type Answer struct {
	Replies map[string]func(ctx *ActionContext) error
	cleanup func()
}

// NewYesNoAnswer builds the common yes/no Answer, installed by `play` on a
// fresh session and by any code wanting a confirm prompt.
func NewYesNoAnswer(onYes, onNo func(ctx *ActionContext) error, cleanup func()) *Answer {
	yes := func(ctx *ActionContext) error { return onYes(ctx) }
	no := func(ctx *ActionContext) error {
		if onNo == nil {
			return nil
		}
		return onNo(ctx)
	}
	return &Answer{
		Replies: map[string]func(ctx *ActionContext) error{
			"yes": yes, "y": yes,
			"no": no, "n": no,
		},
		cleanup: cleanup,
	}
}

func (a *Answer) Flags() CommandFlags { return CommandFlags{} }

func (a *Answer) Match(ctx *ActionContext, line string) (bool, error) {
	fn, ok := a.Replies[strings.ToLower(strings.TrimSpace(line))]
	if !ok {
		return false, nil
	}
	if a.cleanup != nil {
		a.cleanup()
	}
	return true, fn(ctx)
}

// Lambda is a callable whose body is a single expression, used as the value
// of a dynamic attribute authored as `setattr <obj> <attr> lambda: <expr>`.
// Only Source is persisted (§9: scripts persist as source text, not
// compiled callables) — the cache and environment needed to run it come
// from whichever ActionContext is resolving the attribute at the time.
type Lambda struct {
	Source string
}

// Call evaluates the lambda body against ctx and returns its value.
func (l *Lambda) Call(ctx *ActionContext) (interface{}, error) {
	program, err := ctx.Cache.Compile(fmt.Sprintf("return %s", scripting.Unescape(l.Source)))
	if err != nil {
		return nil, err
	}
	env := ctx.Envs.LambdaEnv(ctx, ctx.Caller)
	return program.Run(env)
}
