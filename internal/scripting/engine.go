// Package scripting is the embedded interpreter that backs custom commands,
// regex matchers, event handlers and lambda attributes (see the scripting
// environment component of the world engine). Source text is kept and
// persisted verbatim; it is compiled against a fresh yaegi interpreter the
// first time it runs and cached by content hash afterwards, exactly like the
// world's NPC script cache: one compiled program is shared by every object
// that happens to own byte-identical source.
package scripting

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Failure is the distinguished "ActionFailed" signal: user code raises it to
// report a clean, user-facing failure message. Anything else escaping a
// script run is reported as a generic script error instead.
type Failure struct {
	Msg string
}

func (f *Failure) Error() string { return f.Msg }

// Fail constructs a Failure. Scripts call the "fail" function bound in their
// environment, which panics with one of these; Run recovers it.
func Fail(msg string) error { return &Failure{Msg: msg} }

// AsFailure reports whether err is a Failure.
func AsFailure(err error) (*Failure, bool) {
	f, ok := err.(*Failure)
	return f, ok
}

// Symbols exposes this package's proxy API to the interpreter, the same way
// stdlib.Symbols exposes the standard library. Script source written against
// the "embermoo/internal/scripting" import sees exactly these names and
// nothing else from this package.
var Symbols = interp.Exports{
	"embermoo/internal/scripting/scripting": {
		"Proxy":     reflect.ValueOf((*Proxy)(nil)),
		"NewProxy":  reflect.ValueOf(NewProxy),
		"Fail":      reflect.ValueOf(Fail),
		"Escape":    reflect.ValueOf(Escape),
		"Unescape":  reflect.ValueOf(Unescape),
	},
}

// Program is compiled source ready to run repeatedly against different
// environments.
type Program struct {
	source string
	fn     func(map[string]interface{}) interface{}
}

// Source returns the original, unwrapped script text, exactly as authored.
func (p *Program) Source() string { return p.source }

// Run executes the program with the given environment bindings. The engine
// package decides what self/caller/here/db/game/groups/event/... belong in
// env for a given action kind; this package only knows how to compile and
// invoke, not what a "player" or a "room" is.
func (p *Program) Run(env map[string]interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*Failure); ok {
				err = f
				return
			}
			err = fmt.Errorf("exec error: %v", r)
		}
	}()
	if env == nil {
		env = map[string]interface{}{}
	}
	if _, ok := env["fail"]; !ok {
		env["fail"] = func(msg string) { panic(Fail(msg)) }
	}
	result = p.fn(env)
	return result, nil
}

type cacheEntry struct {
	program *Program
	err     error
}

// Cache compiles and memoizes programs by source hash so that many objects
// sharing the same authored text (a common `cmd` copy-pasted around a room)
// only pay the compile cost once.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// NewCache returns an empty program cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Compile wraps source in a `func Run(env map[string]interface{}) interface{}`
// shell and compiles it. Authors write the body only: a single expression
// statement like `self.Call("Emit", "waves.")`, or several statements ending
// in an optional `return <value>` for lambda attributes. The wrapper binds
// self, caller, here, send and fail as convenience locals pulled out of env;
// anything else an action kind needs (db, game, groups, event, args, query)
// is reached through env directly, which stays in scope for the body.
func (c *Cache) Compile(source string) (*Program, error) {
	key := hashSource(source)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry.program, entry.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return entry.program, entry.err
	}

	program, err := compile(source)
	c.entries[key] = &cacheEntry{program: program, err: err}
	return program, err
}

func compile(source string) (*Program, error) {
	wrapped := wrap(source)
	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if err := interpreter.Use(Symbols); err != nil {
		return nil, fmt.Errorf("load proxy symbols: %w", err)
	}
	if _, err := interpreter.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	value, err := interpreter.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("compile: missing Run: %w", err)
	}
	fn, ok := value.Interface().(func(map[string]interface{}) interface{})
	if !ok {
		return nil, fmt.Errorf("compile: Run has unexpected signature %T", value.Interface())
	}
	return &Program{source: source, fn: fn}, nil
}

const preamble = `package main

import "embermoo/internal/scripting"

func Run(env map[string]interface{}) interface{} {
	self, _ := env["self"].(*scripting.Proxy)
	caller, _ := env["caller"].(*scripting.Proxy)
	here, _ := env["here"].(*scripting.Proxy)
	send, _ := env["send"].(func(string))
	fail, _ := env["fail"].(func(string))
	_, _, _, _, _ = self, caller, here, send, fail
`

func wrap(source string) string {
	body := strings.TrimRight(source, "\n")
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString(body)
	b.WriteString("\n\treturn nil\n}\n")
	return b.String()
}

func hashSource(source string) string {
	sum := sha1.Sum([]byte(source))
	return hex.EncodeToString(sum[:])
}
