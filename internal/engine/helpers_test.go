package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoveObjectUpdatesContentsAndLocation(t *testing.T) {
	db := NewDatabase()
	roomA := NewObject(KindRoom, "A", "Room A.")
	db.Add(roomA)
	roomB := NewObject(KindRoom, "B", "Room B.")
	db.Add(roomB)
	thing := NewObject(KindThing, "Rock", "A rock.")
	db.Add(thing)

	moveObject(db, thing, roomA)
	require.Equal(t, []ID{thing.ID}, roomA.Contents)
	require.True(t, thing.HasLocation)
	require.Equal(t, roomA.ID, thing.Location)

	moveObject(db, thing, roomB)
	require.NotContains(t, roomA.Contents, thing.ID)
	require.Equal(t, []ID{thing.ID}, roomB.Contents)
	require.Equal(t, roomB.ID, thing.Location)
}

func TestFindInContentsResolvesUniquePrefix(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	sword := NewObject(KindThing, "Sword", "A sword.")
	db.Add(sword)
	room.Contents = append(room.Contents, sword.ID)

	got, err := findInContents(db, room, "sw")
	require.NoError(t, err)
	require.Same(t, sword, got)
}

func TestFindInContentsReturnsAmbiguousErrorOnMultipleMatches(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	a := NewObject(KindThing, "Apple", "A fruit.")
	db.Add(a)
	b := NewObject(KindThing, "Apricot", "A fruit.")
	db.Add(b)
	room.Contents = append(room.Contents, a.ID, b.ID)

	got, err := findInContents(db, room, "ap")
	require.Nil(t, got)
	require.Error(t, err)
	require.Equal(t, "Which one?\nChoices are: Apple, Apricot", err.Error())
}

func TestFindInContentsReturnsNilNilOnNoMatch(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)

	got, err := findInContents(db, room, "nothing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestResolveVisibleResolvesMeAndHereAliases(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	player := NewObject(KindPlayer, "Alice", "A player.")
	player.HasLocation = true
	player.Location = room.ID
	db.Add(player)
	room.Contents = append(room.Contents, player.ID)

	ctx := &ActionContext{DB: db, Caller: player}
	me, err := resolveVisible(ctx, "me")
	require.NoError(t, err)
	require.Same(t, player, me)

	here, err := resolveVisible(ctx, "here")
	require.NoError(t, err)
	require.Same(t, room, here)
}

func TestResolveVisibleResolvesDbref(t *testing.T) {
	db := NewDatabase()
	thing := NewObject(KindThing, "Rock", "A rock.")
	db.Add(thing)
	player := NewObject(KindPlayer, "Alice", "A player.")
	db.Add(player)

	ctx := &ActionContext{DB: db, Caller: player}
	got, err := resolveVisible(ctx, "#2")
	require.NoError(t, err)
	require.Same(t, thing, got)
}

func TestResolveVisibleFallsBackToRoomContents(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	player := NewObject(KindPlayer, "Alice", "A player.")
	player.HasLocation = true
	player.Location = room.ID
	db.Add(player)
	room.Contents = append(room.Contents, player.ID)
	sword := NewObject(KindThing, "Sword", "A sword.")
	db.Add(sword)
	room.Contents = append(room.Contents, sword.ID)

	ctx := &ActionContext{DB: db, Caller: player}
	got, err := resolveVisible(ctx, "sword")
	require.NoError(t, err)
	require.Same(t, sword, got)
}

func TestResolveVisibleReportsAmbiguousRoomContents(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	player := NewObject(KindPlayer, "Alice", "A player.")
	player.HasLocation = true
	player.Location = room.ID
	db.Add(player)
	room.Contents = append(room.Contents, player.ID)
	apple := NewObject(KindThing, "Apple", "A fruit.")
	db.Add(apple)
	apricot := NewObject(KindThing, "Apricot", "A fruit.")
	db.Add(apricot)
	room.Contents = append(room.Contents, apple.ID, apricot.ID)

	ctx := &ActionContext{DB: db, Caller: player}
	got, err := resolveVisible(ctx, "ap")
	require.Nil(t, got)
	require.Error(t, err)
	require.Equal(t, "Which one?\nChoices are: Apple, Apricot", err.Error())
}

func TestBroadcastLocationExcludesGivenPlayer(t *testing.T) {
	db := NewDatabase()
	room := NewObject(KindRoom, "Plaza", "A plaza.")
	db.Add(room)
	a := NewObject(KindPlayer, "Alice", "A player.")
	a.HasLocation, a.Location, a.Online = true, room.ID, true
	db.Add(a)
	b := NewObject(KindPlayer, "Bob", "A player.")
	b.HasLocation, b.Location, b.Online = true, room.ID, true
	db.Add(b)
	room.Contents = append(room.Contents, a.ID, b.ID)

	senders := NewSessionRegistry()
	var aGot, bGot string
	senders.Register(a.ID, func(s string) { aGot = s })
	senders.Register(b.ID, func(s string) { bGot = s })

	ctx := &ActionContext{DB: db, Senders: senders}
	broadcastLocation(ctx, a, "hello", a)

	require.Empty(t, aGot)
	require.Equal(t, "hello", bGot)
}
