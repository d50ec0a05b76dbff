package engine

import (
	"strings"

	"go.uber.org/zap"

	"embermoo/internal/scripting"
)

// World ties the database, scheduler, dispatcher, scripting cache and
// session registry together into the one object cmd/server and the session
// package need a handle to.
type World struct {
	DB         *Database
	Game       *Scheduler
	Senders    *SessionRegistry
	Cache      *scripting.Cache
	Dispatcher *Dispatcher
	log        *zap.SugaredLogger
}

// NewWorld builds a fresh, empty world.
func NewWorld(log *zap.SugaredLogger) *World {
	db := NewDatabase()
	game := NewScheduler(log)
	senders := NewSessionRegistry()
	cache := scripting.NewCache()
	w := &World{DB: db, Game: game, Senders: senders, Cache: cache, log: log}
	w.Dispatcher = &Dispatcher{DB: db, Game: game, Senders: senders, Cache: cache, Config: w.config()}
	return w
}

// config returns the singleton Config object, creating it (with zero-value
// default_room/master_room) if this is a fresh world.
func (w *World) config() *Object {
	for _, c := range w.DB.ListAll(KindConfig) {
		return c
	}
	c := NewObject(KindConfig, "config", "world configuration")
	w.DB.Add(c)
	return c
}

// refreshConfig re-resolves the singleton Config reference into the
// dispatcher, needed after Load replaces the database wholesale.
func (w *World) refreshConfig() {
	w.Dispatcher.Config = w.config()
}

// Load replaces the world's database contents from path and re-resolves the
// derived Config reference (§4.10, §6: the server must tolerate a missing
// file and keep running on a corrupt one).
func (w *World) Load(path string) error {
	if err := w.DB.Load(path); err != nil {
		return err
	}
	w.refreshConfig()
	return nil
}

// Dump serializes the world to path (§4.1, §4.10, §6).
func (w *World) Dump(path string) error {
	return w.DB.Dump(path)
}

// FindPlayerByName resolves an exact (case-insensitive) player name, the
// lookup `play <name>` and the operator `kick` channel need.
func (w *World) FindPlayerByName(name string) *Object {
	for _, p := range w.DB.ListAll(KindPlayer) {
		if strings.EqualFold(name, p.Name) {
			return p
		}
	}
	return nil
}

// CreatePlayer creates a brand-new player character, placing it in the
// configured default_room (if any), and grants it God if it is the very
// first player in a fresh world (SUPPLEMENTED FEATURES: first-player
// bootstrap, original_source MRPlayer.__init__).
func (w *World) CreatePlayer(name string) *Object {
	firstPlayer := len(w.DB.ListAll(KindPlayer)) == 0

	player := NewObject(KindPlayer, name, "A player wizard.")
	w.DB.Add(player)

	cfg := w.config()
	if cfg.DefaultRoom != 0 {
		if room := w.DB.Get(cfg.DefaultRoom); room != nil {
			moveObject(w.DB, player, room)
		}
	}
	if firstPlayer {
		player.Powers = append(player.Powers, "God")
	}
	return player
}
