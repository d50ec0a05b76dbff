package transport

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"embermoo/internal/config"
	"embermoo/internal/engine"
	"embermoo/internal/session"
)

// operatorHandler implements the out-of-band operator command channel
// (§6): help, login, users, kick, save, load, shutdown, reload. It is
// consumed before the dispatch pipeline and is not part of the core engine.
type operatorHandler struct {
	cfg   config.Server
	world *engine.World
	log   *zap.SugaredLogger
}

func (s *operatorHandler) handle(sess *session.Session, conn *Conn, line string) {
	word, rest := splitWord(line)
	switch word {
	case "help":
		conn.WriteLine("Operator commands: help, login <password>, users, kick <player>, save, load, shutdown, reload <module>")
	case "login":
		s.handleLogin(sess, conn, rest)
	case "users":
		s.requirePrivilege(sess, conn, func() {
			var names []string
			for _, p := range s.world.DB.ListAll(engine.KindPlayer) {
				if p.Online {
					names = append(names, p.Name)
				}
			}
			conn.WriteLine("Online: " + strings.Join(names, ", "))
		})
	case "kick":
		s.requirePrivilege(sess, conn, func() {
			target := s.world.FindPlayerByName(strings.TrimSpace(rest))
			if target == nil || !target.Online {
				conn.WriteLine("No such connected player.")
				return
			}
			if send, ok := s.world.Senders.Get(target.ID); ok {
				send("You have been disconnected by an operator.")
			}
			conn.WriteLine("Kicked.")
		})
	case "save":
		s.requirePrivilege(sess, conn, func() {
			if err := s.world.Dump(s.cfg.DBFile); err != nil {
				s.log.Errorw("save failed", "error", err)
				conn.WriteLine("Save failed.")
				return
			}
			conn.WriteLine("Saved.")
		})
	case "load":
		s.requirePrivilege(sess, conn, func() {
			if err := s.world.Load(s.cfg.DBFile); err != nil {
				s.log.Errorw("load failed", "error", err)
				conn.WriteLine("Load failed.")
				return
			}
			conn.WriteLine("Loaded.")
		})
	case "shutdown":
		s.requirePrivilege(sess, conn, func() {
			s.world.Senders.Broadcast("The server is shutting down.")
			if err := s.world.Dump(s.cfg.DBFile); err != nil {
				s.log.Errorw("final dump failed", "error", err)
			}
			conn.WriteLine("Shutting down.")
			conn.Close()
		})
	case "reload":
		s.requirePrivilege(sess, conn, func() {
			conn.WriteLine(fmt.Sprintf("Reload of %q acknowledged (no hot module reload in this runtime).", strings.TrimSpace(rest)))
		})
	default:
		conn.WriteLine("Unknown operator command.")
	}
}

func (s *operatorHandler) handleLogin(sess *session.Session, conn *Conn, password string) {
	if s.cfg.OpPassword == "" || strings.TrimSpace(password) != s.cfg.OpPassword {
		conn.WriteLine("Incorrect password.")
		return
	}
	sess.Elevate()
	conn.WriteLine("Operator privileges granted.")
}

// requirePrivilege gates privileged commands pre-elevation (§6: "login
// elevates the session to operator; privileged commands are rejected
// pre-elevation").
func (s *operatorHandler) requirePrivilege(sess *session.Session, conn *Conn, fn func()) {
	if !sess.IsOperator() {
		conn.WriteLine("Not authorized.")
		return
	}
	fn()
}

func splitWord(s string) (string, string) {
	trimmed := strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(trimmed, " \t")
	if idx < 0 {
		return strings.ToLower(trimmed), ""
	}
	return strings.ToLower(trimmed[:idx]), strings.TrimLeft(trimmed[idx+1:], " \t")
}
