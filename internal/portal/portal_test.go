package portal

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"embermoo/internal/engine"
)

func newTestPortal(t *testing.T) (*Portal, *engine.World) {
	world := engine.NewWorld(zap.NewNop().Sugar())
	worldObj := engine.NewObject(engine.KindThing, "Gateway", "A shimmering gateway.")
	world.DB.Add(worldObj)
	p := NewPortal("north", worldObj, world, zap.NewNop().Sugar())
	return p, world
}

func TestLocalEnterTracksPlayerDespiteNoLiveConnection(t *testing.T) {
	p, world := newTestPortal(t)
	player := world.CreatePlayer("Finn")

	err := p.LocalEnter(player)
	require.Error(t, err) // no conn to actually send over
	require.Contains(t, p.localByID, uint64(player.ID))
}

func TestLocalLeaveUntracksPlayer(t *testing.T) {
	p, world := newTestPortal(t)
	player := world.CreatePlayer("Gale")
	p.LocalEnter(player)

	p.LocalLeave(uint64(player.ID))
	require.NotContains(t, p.localByID, uint64(player.ID))
}

func TestHandlePlayerLeaveRemovesFromRemoteRoster(t *testing.T) {
	p, _ := newTestPortal(t)
	p.remoteByID[42] = true
	p.handle(Message{Type: "player-leave", PlayerID: 42})
	require.NotContains(t, p.remoteByID, uint64(42))
}

func TestHandleRemoteEnterTracksVisitorAndFiresEvent(t *testing.T) {
	p, _ := newTestPortal(t)
	p.WorldObj.CustomEvents["portal-visitor"] = `self.SetAttr("visited", true)`

	p.handle(Message{Type: "player-enter", PlayerID: 7})

	require.Contains(t, p.remoteByID, uint64(7))
	v, ok := p.WorldObj.Attributes["visited"]
	require.True(t, ok)
	require.Equal(t, true, v)
}

func TestHandlePlayerInputDispatchesToKnownPlayer(t *testing.T) {
	p, world := newTestPortal(t)
	player := world.CreatePlayer("Hera")
	p.localByID[uint64(player.ID)] = player
	world.Senders.Register(player.ID, func(string) {})

	require.NotPanics(t, func() {
		p.handle(Message{Type: "player-input", PlayerID: uint64(player.ID), Text: "look"})
	})
}

func TestHandlePlayerInputReportsUnknownPlayer(t *testing.T) {
	p, _ := newTestPortal(t)
	require.NotPanics(t, func() {
		p.handle(Message{Type: "player-input", PlayerID: 999, Text: "look"})
	})
}

func TestDispatchEventRunsCustomHandlerOnWorldObject(t *testing.T) {
	p, _ := newTestPortal(t)
	p.WorldObj.CustomEvents["portal-connect"] = `self.SetAttr("connected", true)`

	p.dispatchEvent("portal-connect")

	v, ok := p.WorldObj.Attributes["connected"]
	require.True(t, ok)
	require.Equal(t, true, v)
}

func TestDispatchEventNoopsWithoutWorldObj(t *testing.T) {
	world := engine.NewWorld(zap.NewNop().Sugar())
	p := NewPortal("lost", nil, world, zap.NewNop().Sugar())
	require.NotPanics(t, func() { p.dispatchEvent("portal-connect") })
}
