package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWorld(t *testing.T) *World {
	return NewWorld(zap.NewNop().Sugar())
}

func TestNewWorldCreatesSingletonConfig(t *testing.T) {
	w := newTestWorld(t)
	cfgs := w.DB.ListAll(KindConfig)
	require.Len(t, cfgs, 1)
	require.Same(t, w.Dispatcher.Config, cfgs[0])
}

func TestCreatePlayerFirstOneBecomesGod(t *testing.T) {
	w := newTestWorld(t)
	first := w.CreatePlayer("Alice")
	require.Contains(t, first.Powers, "God")

	second := w.CreatePlayer("Bob")
	require.NotContains(t, second.Powers, "God")
}

func TestCreatePlayerSpawnsInDefaultRoomWhenConfigured(t *testing.T) {
	w := newTestWorld(t)
	room := NewObject(KindRoom, "Plaza", "A wide plaza.")
	w.DB.Add(room)
	cfg := w.config()
	cfg.DefaultRoom = room.ID

	player := w.CreatePlayer("Carol")
	require.Equal(t, room.ID, player.Location)
	require.Contains(t, room.Contents, player.ID)
}

func TestCreatePlayerWithoutDefaultRoomLeavesLocationUnset(t *testing.T) {
	w := newTestWorld(t)
	player := w.CreatePlayer("Dana")
	require.False(t, player.HasLocation)
}

func TestFindPlayerByNameIsCaseInsensitive(t *testing.T) {
	w := newTestWorld(t)
	w.CreatePlayer("Eve")
	found := w.FindPlayerByName("eVe")
	require.NotNil(t, found)
	require.Equal(t, "Eve", found.Name)
}

func TestFindPlayerByNameReturnsNilWhenAbsent(t *testing.T) {
	w := newTestWorld(t)
	require.Nil(t, w.FindPlayerByName("Nobody"))
}

func TestWorldDumpLoadRoundTrip(t *testing.T) {
	w := newTestWorld(t)
	w.CreatePlayer("Finn")
	path := filepath.Join(t.TempDir(), "world.sav")
	require.NoError(t, w.Dump(path))

	w2 := newTestWorld(t)
	require.NoError(t, w2.Load(path))
	require.NotNil(t, w2.FindPlayerByName("Finn"))
	require.Same(t, w2.Dispatcher.Config, w2.config())
}

func TestWorldLoadToleratesMissingFile(t *testing.T) {
	w := newTestWorld(t)
	err := w.Load(filepath.Join(t.TempDir(), "nope.sav"))
	require.NoError(t, err)
}
