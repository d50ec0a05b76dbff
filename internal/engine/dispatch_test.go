package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"embermoo/internal/scripting"
)

func newTestDispatcher() (*Dispatcher, *Database) {
	db := NewDatabase()
	d := &Dispatcher{DB: db, Game: NewScheduler(nil), Senders: NewSessionRegistry(), Cache: nil}
	return d, db
}

func TestDispatchPlayerBuiltinMatches(t *testing.T) {
	d, db := newTestDispatcher()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	player := NewObject(KindPlayer, "Alice", "A player.")
	player.HasLocation = true
	player.Location = room.ID
	db.Add(player)
	room.Contents = append(room.Contents, player.ID)

	var sent string
	matched, err := d.Dispatch(player, func(s string) { sent = s }, "look")
	require.True(t, matched)
	require.NoError(t, err)
	require.NotEmpty(t, sent)
}

func TestDispatchUnmatchedLineReturnsFalse(t *testing.T) {
	d, db := newTestDispatcher()
	player := NewObject(KindPlayer, "Alice", "A player.")
	db.Add(player)

	matched, err := d.Dispatch(player, func(string) {}, "frobnicate")
	require.False(t, matched)
	require.NoError(t, err)
}

func TestDispatchOwnCustomCommandTakesPriorityOverBuiltin(t *testing.T) {
	d, db := newTestDispatcher()
	player := NewObject(KindPlayer, "Alice", "A player.")
	db.Add(player)
	player.CustomCommands["look"] = &CommandRecord{
		Name: "look", Source: `send("custom look")`, OwnerID: player.ID,
	}

	d.Cache = scripting.NewCache()

	var sent string
	matched, err := d.Dispatch(player, func(s string) { sent = s }, "look")
	require.True(t, matched)
	require.NoError(t, err)
	require.Equal(t, "custom look", sent)
}

func TestActionNamesListsLiveDispatchSet(t *testing.T) {
	d, db := newTestDispatcher()
	player := NewObject(KindPlayer, "Alice", "A player.")
	db.Add(player)

	names := d.ActionNames(player)
	require.Contains(t, names, "go")
	require.Contains(t, names, "look")
	require.Contains(t, names, "describe")
}

func TestGatherIncludesRoomBuiltinsWhenLocated(t *testing.T) {
	d, db := newTestDispatcher()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	player := NewObject(KindPlayer, "Alice", "A player.")
	player.HasLocation = true
	player.Location = room.ID
	db.Add(player)
	room.Contents = append(room.Contents, player.ID)

	names := d.ActionNames(player)
	require.Contains(t, names, "say")
}

func TestFirstWordLowercasesAndTrims(t *testing.T) {
	require.Equal(t, "look", firstWord("  Look at sword"))
}
