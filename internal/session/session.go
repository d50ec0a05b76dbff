// Package session is the per-connection state machine (§4.9): it binds a
// network client to a persisted character, dispatches input through the
// engine's action pipeline plus its own session-level commands, and tears
// down cleanly on disconnect.
package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"embermoo/internal/engine"
)

// Session is one connected client. `player` is nil until `play <name>`
// succeeds; `name` is the display name, initially the peer address (§4.9).
type Session struct {
	ID     string
	World  *engine.World
	Send   func(string)
	Name   string
	Debug  bool
	log    *zap.SugaredLogger
	player *engine.Object

	limiter *rate.Limiter

	answer   *engine.Answer
	operator bool
	silent   bool
}

// New constructs a session for a freshly accepted connection. peerAddr
// becomes the session's initial display name, matching §4.9's "initially
// the peer address."
func New(world *engine.World, send func(string), peerAddr string, debug bool, log *zap.SugaredLogger) *Session {
	return &Session{
		ID:      uuid.NewString(),
		World:   world,
		Send:    send,
		Name:    peerAddr,
		Debug:   debug,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// Player returns the bound character, or nil if none.
func (s *Session) Player() *engine.Object { return s.player }

// IsOperator reports whether `login <password>` has elevated this session.
func (s *Session) IsOperator() bool { return s.operator }

// Elevate marks the session as operator-privileged.
func (s *Session) Elevate() { s.operator = true }

// Silence suppresses this session's own disconnect broadcast, the effect
// of an operator `kick` (§5 cancellation/timeouts).
func (s *Session) Silence() { s.silent = true }

// Silent reports whether Silence was called.
func (s *Session) Silent() bool { return s.silent }

// HandleLine processes one line of input: session-level commands first half
// of §4.4 step 7 are actually tried last (the engine's dispatch pipeline
// gets first refusal), falling back to `help`/`play` only on a miss, then
// finally "Huh?" if nothing at all matched.
func (s *Session) HandleLine(line string) {
	if !s.limiter.Allow() {
		s.Send("You're typing too fast.")
		return
	}

	if s.answer != nil {
		a := s.answer
		matched, err := a.Match(s.actionContext(), line)
		if matched {
			s.answer = nil
			s.reportIfErr(err)
			return
		}
	}

	if s.player != nil {
		matched, err := s.World.Dispatcher.Dispatch(s.player, s.Send, line)
		if matched {
			s.reportIfErr(err)
			return
		}
	}

	if s.handleSessionCommand(line) {
		return
	}

	s.Send("Huh?")
}

func (s *Session) reportIfErr(err error) {
	if err == nil {
		return
	}
	if s.Debug {
		s.Send(engine.ScriptError(err))
		return
	}
	s.Send(engine.DispatchReply(err))
}

// actionContext builds the minimal ActionContext an Answer or session
// command needs: enough to run scripting.Proxy-backed closures if it
// happens to invoke one, though session commands ordinarily do not.
func (s *Session) actionContext() *engine.ActionContext {
	return &engine.ActionContext{
		DB:      s.World.DB,
		Game:    s.World.Game,
		Senders: s.World.Senders,
		Cache:   s.World.Cache,
		Envs:    engine.EnvBuilder{DB: s.World.DB, Game: s.World.Game, Senders: s.World.Senders, Cache: s.World.Cache},
		Caller:  s.player,
		Send:    s.Send,
	}
}

// handleSessionCommand implements §4.4 step 7 and §4.9/§6: help, play.
func (s *Session) handleSessionCommand(line string) bool {
	word, rest := splitFirstWord(line)
	switch word {
	case "help":
		s.cmdHelp(rest)
		return true
	case "play":
		s.cmdPlay(rest)
		return true
	}
	return false
}

// cmdPlay implements §4.9: looks up a character; if none, prompts to create
// via a YesNo answer; if already bound to another live session, refuses
// outright (no takeover path, per invariant 4 and SUPPLEMENTED FEATURES).
func (s *Session) cmdPlay(arg string) {
	name := strings.TrimSpace(arg)
	if name == "" {
		s.Send("Usage: play <name>")
		return
	}
	if s.player != nil {
		s.Send("You are already playing a character.")
		return
	}

	existing := s.World.FindPlayerByName(name)
	if existing == nil {
		s.promptCreate(name)
		return
	}
	if existing.Online {
		s.Send(fmt.Sprintf("%s is already connected.", existing.Name))
		return
	}
	s.bind(existing)
}

func (s *Session) promptCreate(name string) {
	s.Send(fmt.Sprintf("No character named %s exists. Create one? (yes/no)", name))
	cleanup := func() { s.answer = nil }
	s.answer = engine.NewYesNoAnswer(
		func(ctx *engine.ActionContext) error {
			player := s.World.CreatePlayer(name)
			s.bind(player)
			return nil
		},
		func(ctx *engine.ActionContext) error {
			s.Send("Okay, never mind.")
			return nil
		},
		cleanup,
	)
}

// bind binds client<->player, broadcasts a login notice, and dispatches
// "connect" on the player (§4.9).
func (s *Session) bind(player *engine.Object) {
	s.player = player
	player.Online = true
	s.World.Senders.Register(player.ID, s.Send)
	s.Name = player.Name

	s.broadcastGlobal(fmt.Sprintf("%s has connected.", player.Name))
	engine.Dispatch(s.actionContext(), player, s.World.Cache, "connect", nil)
	s.Send(fmt.Sprintf("Welcome, %s.", player.Name))
}

// OnDisconnect implements §4.9: clears player.client (Online) if a player is
// attached, and broadcasts a quit notice unless silenced by `kick`.
func (s *Session) OnDisconnect() {
	if s.player == nil {
		return
	}
	s.player.Online = false
	if !s.silent {
		s.broadcastGlobal(fmt.Sprintf("%s has disconnected.", s.player.Name))
	}
	s.World.Senders.Unregister(s.player.ID)
}

func (s *Session) broadcastGlobal(text string) {
	s.World.Senders.Broadcast(text)
}

// cmdHelp lists the live dispatch set for the caller, or prefix-matches a
// single command name against it (SUPPLEMENTED FEATURES, original_source
// client.py:HelpCommand).
func (s *Session) cmdHelp(arg string) {
	names := []string{"help", "play"}
	if s.player != nil {
		names = append(names, s.World.Dispatcher.ActionNames(s.player)...)
	}
	sort.Strings(names)

	arg = strings.TrimSpace(arg)
	if arg == "" {
		s.Send("Available commands: " + strings.Join(names, ", "))
		return
	}
	matches := engine.MatchList(arg, names)
	switch len(matches) {
	case 0:
		s.Send(fmt.Sprintf("No such command %q.", arg))
	case 1:
		s.Send(fmt.Sprintf("%s: see the source for usage.", matches[0]))
	default:
		s.Send("Which one? Choices are: " + strings.Join(matches, ", "))
	}
}

func splitFirstWord(line string) (string, string) {
	trimmed := strings.TrimLeft(line, " \t")
	idx := strings.IndexAny(trimmed, " \t")
	if idx < 0 {
		return strings.ToLower(trimmed), ""
	}
	return strings.ToLower(trimmed[:idx]), strings.TrimLeft(trimmed[idx+1:], " \t")
}
