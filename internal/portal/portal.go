// Package portal is the optional cross-server bridge (§1: explicitly out of
// core, a thin external collaborator). It mirrors original_source's
// websockets.server-based portal protocol: JSON messages carrying
// player-enter/leave/input/output and object-get/object-info, over
// gorilla/websocket instead of Python's asyncio websockets.
package portal

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"embermoo/internal/engine"
)

// Message is the wire envelope: {"type": "...", ...fields}.
type Message struct {
	Type       string                 `json:"type"`
	Name       string                 `json:"name,omitempty"`
	PlayerID   uint64                 `json:"player_id,omitempty"`
	Text       string                 `json:"text,omitempty"`
	ObjectID   uint64                 `json:"object_id,omitempty"`
	Info       map[string]interface{} `json:"info,omitempty"`
	MessageStr string                 `json:"message,omitempty"`
}

// Portal is a two-way channel between this world and a remote one, bound to
// a world_object that receives portal-connect/disconnect/visitor/return
// events, exactly as original_source's Portal class does via dispatch.
type Portal struct {
	Name       string
	WorldObj   *engine.Object
	World      *engine.World
	log        *zap.SugaredLogger
	conn       *websocket.Conn
	localByID  map[uint64]*engine.Object
	remoteByID map[uint64]bool
}

// NewPortal registers a named portal bound to the given world object.
func NewPortal(name string, worldObj *engine.Object, world *engine.World, log *zap.SugaredLogger) *Portal {
	return &Portal{
		Name:       name,
		WorldObj:   worldObj,
		World:      world,
		log:        log,
		localByID:  map[uint64]*engine.Object{},
		remoteByID: map[uint64]bool{},
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP accepts an inbound portal connection and starts reading its
// messages. The peer's opening "hello" is accepted without checking the
// name it carries, and other messages are not held back waiting for it.
func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.Warnw("portal upgrade failed", "error", err)
		return
	}
	p.conn = conn
	p.dispatchEvent("portal-connect")
	go p.readLoop()
}

// Open dials a remote portal endpoint, the client-side analogue of Open in
// original_source.
func (p *Portal) Open(url string) error {
	if p.conn != nil {
		return fmt.Errorf("portal %q is already open", p.Name)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial portal: %w", err)
	}
	p.conn = conn
	if err := p.send(Message{Type: "hello", Name: p.Name}); err != nil {
		return err
	}
	p.dispatchEvent("portal-connect")
	go p.readLoop()
	return nil
}

// Close closes the underlying connection.
func (p *Portal) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *Portal) send(msg Message) error {
	if p.conn == nil {
		return fmt.Errorf("portal %q has no connection", p.Name)
	}
	return p.conn.WriteJSON(msg)
}

func (p *Portal) readLoop() {
	defer p.onClose()
	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			return
		}
		p.handle(msg)
	}
}

func (p *Portal) handle(msg Message) {
	switch msg.Type {
	case "player-input":
		p.handlePlayerInput(msg)
	case "player-output":
		p.handlePlayerOutput(msg)
	case "player-enter":
		p.handleRemoteEnter(msg)
	case "player-leave":
		delete(p.remoteByID, msg.PlayerID)
	case "object-get":
		p.handleObjectGet(msg)
	case "hello":
		// sent once by Open on the dialing side; nothing to do here
	case "error":
		p.log.Warnw("portal peer reported error", "portal", p.Name, "message", msg.MessageStr)
	default:
		p.send(Message{Type: "error", MessageStr: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// LocalEnter sends a player crossing into this portal from the local side,
// original_source's Portal.local_enter.
func (p *Portal) LocalEnter(player *engine.Object) error {
	p.localByID[uint64(player.ID)] = player
	return p.send(Message{Type: "player-enter", PlayerID: uint64(player.ID)})
}

// LocalLeave reports a local player leaving the bridged view.
func (p *Portal) LocalLeave(playerID uint64) error {
	delete(p.localByID, playerID)
	return p.send(Message{Type: "player-leave", PlayerID: playerID})
}

// LocalInput forwards a line a local player typed while visiting the remote
// side (original_source's Portal.local_input).
func (p *Portal) LocalInput(playerID uint64, text string) error {
	return p.send(Message{Type: "player-input", PlayerID: playerID, Text: text})
}

func (p *Portal) handlePlayerInput(msg Message) {
	player, ok := p.localByID[msg.PlayerID]
	if !ok {
		p.send(Message{Type: "error", MessageStr: fmt.Sprintf("player #%d input but was unknown locally", msg.PlayerID)})
		return
	}
	send, ok := p.World.Senders.Get(player.ID)
	if !ok {
		return
	}
	p.World.Dispatcher.Dispatch(player, send, msg.Text)
}

func (p *Portal) handlePlayerOutput(msg Message) {
	player, ok := p.localByID[msg.PlayerID]
	if !ok {
		p.send(Message{Type: "error", MessageStr: fmt.Sprintf("player #%d output but was unknown locally", msg.PlayerID)})
		return
	}
	if send, ok := p.World.Senders.Get(player.ID); ok {
		send(msg.Text)
	}
}

func (p *Portal) handleRemoteEnter(msg Message) {
	p.remoteByID[msg.PlayerID] = true
	p.dispatchEvent("portal-visitor")
}

func (p *Portal) handleObjectGet(msg Message) {
	obj := p.World.DB.Get(engine.ID(msg.ObjectID))
	if obj == nil {
		p.send(Message{Type: "error", MessageStr: fmt.Sprintf("no such object #%d", msg.ObjectID)})
		return
	}
	p.send(Message{Type: "object-info", ObjectID: msg.ObjectID, Info: map[string]interface{}{
		"id": uint64(obj.ID), "name": obj.Name, "description": obj.Description,
	}})
}

func (p *Portal) dispatchEvent(event string) {
	if p.WorldObj == nil {
		return
	}
	ctx := &engine.ActionContext{
		DB: p.World.DB, Game: p.World.Game, Senders: p.World.Senders, Cache: p.World.Cache,
		Envs:   engine.EnvBuilder{DB: p.World.DB, Game: p.World.Game, Senders: p.World.Senders, Cache: p.World.Cache},
		Caller: p.WorldObj, Here: p.WorldObj,
	}
	engine.Dispatch(ctx, p.WorldObj, p.World.Cache, event, map[string]interface{}{"portal": p.Name})
}

func (p *Portal) onClose() {
	p.dispatchEvent("portal-disconnect")
	for _, player := range p.localByID {
		p.dispatchEvent("portal-return")
		_ = player
	}
	p.remoteByID = map[uint64]bool{}
}
