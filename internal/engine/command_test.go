package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"embermoo/internal/scripting"
)

func TestParseCommandFlagsDecodesEachLetter(t *testing.T) {
	f := ParseCommandFlags("opi")
	require.True(t, f.Owner)
	require.True(t, f.Peer)
	require.True(t, f.Interior)
}

func TestParseCommandFlagsIgnoresUnknownLetters(t *testing.T) {
	f := ParseCommandFlags("oz")
	require.True(t, f.Owner)
	require.False(t, f.Peer)
	require.False(t, f.Interior)
}

func TestLambdaOnlyPersistsSourceText(t *testing.T) {
	// A Lambda stored as an attribute must survive a JSON round-trip through
	// the same encoder Database.Dump uses, without ever carrying a pointer
	// into the live database/scheduler/session registry.
	o := NewObject(KindThing, "Orb", "A glowing orb.")
	require.NoError(t, o.setAttr("glow", &Lambda{Source: `"bright"`}))

	data, err := json.Marshal(o)
	require.NoError(t, err)

	var decoded Object
	require.NoError(t, json.Unmarshal(data, &decoded))

	raw, ok := decoded.Attributes["glow"]
	require.True(t, ok)
	// Decoded back as a plain map (Attributes is map[string]interface{}),
	// since Lambda's concrete type does not survive an interface{} round
	// trip without a custom unmarshaler; the source text is what persists.
	asMap, ok := raw.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, `"bright"`, asMap["Source"])
}

func TestAnswerMatchesConfiguredRepliesCaseInsensitively(t *testing.T) {
	var called string
	a := NewYesNoAnswer(
		func(ctx *ActionContext) error { called = "yes"; return nil },
		func(ctx *ActionContext) error { called = "no"; return nil },
		func() {},
	)
	ctx := &ActionContext{}
	matched, err := a.Match(ctx, "YES")
	require.True(t, matched)
	require.NoError(t, err)
	require.Equal(t, "yes", called)
}

func TestAnswerDoesNotMatchUnrelatedInput(t *testing.T) {
	a := NewYesNoAnswer(func(ctx *ActionContext) error { return nil }, nil, func() {})
	matched, err := a.Match(&ActionContext{}, "maybe")
	require.False(t, matched)
	require.NoError(t, err)
}

func TestCustomCommandBindsSelfToOwnerNotCaller(t *testing.T) {
	// A command authored on one object (`cmd #3 greet ...`) must see that
	// object as self even when a different player invokes it — self and
	// caller differ whenever a command runs on something other than the
	// caller itself (§4.8).
	db := NewDatabase()
	owner := NewObject(KindThing, "Statue", "A stone statue.")
	db.Add(owner)
	caller := NewObject(KindPlayer, "Wiz", "A wizard.")
	db.Add(caller)

	rec := &CommandRecord{Name: "greet", Source: `self.SetAttr("greeted", true)`, OwnerID: owner.ID}
	cache := scripting.NewCache()
	envs := EnvBuilder{DB: db, Cache: cache}
	cc := &CustomCommand{Record: rec, Cache: cache, Envs: envs}

	ctx := &ActionContext{DB: db, Cache: cache, Envs: envs, Caller: caller, Here: caller, Send: func(string) {}}
	matched, err := cc.Match(ctx, "greet")
	require.True(t, matched)
	require.NoError(t, err)

	_, ownerGreeted := owner.Attributes["greeted"]
	require.True(t, ownerGreeted)
	_, callerGreeted := caller.Attributes["greeted"]
	require.False(t, callerGreeted)
}

func TestAnswerRunsCleanupBeforeCallback(t *testing.T) {
	var order []string
	a := NewYesNoAnswer(
		func(ctx *ActionContext) error { order = append(order, "callback"); return nil },
		nil,
		func() { order = append(order, "cleanup") },
	)
	_, _ = a.Match(&ActionContext{}, "y")
	require.Equal(t, []string{"cleanup", "callback"}, order)
}
