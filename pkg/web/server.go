// Package web serves reading pages over websockets, one tracker per page,
// plus a small JSON API for status and settings.
package web

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-gazereader/internal/log"
	"github.com/teslashibe/go-gazereader/pkg/hub"
	"github.com/teslashibe/go-gazereader/pkg/journal"
	"github.com/teslashibe/go-gazereader/pkg/protocol"
	"github.com/teslashibe/go-gazereader/pkg/tracking"
)

// Server is the focusd HTTP and websocket server
type Server struct {
	app     *fiber.App
	addr    string
	profile string
	config  tracking.Config
	journal *journal.Store // nil disables the journal

	// Parent of every session context
	ctx context.Context

	// Hub for status viewers
	statusHub *hub.Hub

	mu       sync.RWMutex
	settings tracking.Settings // applied to new sessions
	sessions map[string]*Session
}

// NewServer creates a server whose sessions use the named tracking
// profile. store may be nil.
func NewServer(addr, profile string, store *journal.Store) *Server {
	s := &Server{
		addr:      addr,
		profile:   profile,
		config:    tracking.ProfileConfig(profile),
		journal:   store,
		ctx:       context.Background(),
		statusHub: hub.New("status"),
		settings:  tracking.DefaultSettings(),
		sessions:  make(map[string]*Session),
	}

	app := fiber.New(fiber.Config{
		AppName:               "focusd",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// CORS for pages served from elsewhere
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Get("/sessions", s.handleSessions)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/session", websocket.New(s.handleSessionWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until the listener fails or Shutdown is called. Sessions
// are stopped when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx
	s.statusHub.Start(ctx)

	fmt.Printf("🌐 focusd listening on %s (profile %s)\n", s.addr, s.profile)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Settings returns the settings applied to new sessions.
func (s *Server) Settings() tracking.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings validates st, makes it the default for new sessions and
// pushes it to every live session.
func (s *Server) SetSettings(st tracking.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = st
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	for _, sess := range live {
		if err := sess.applySettings(st); err != nil {
			sess.log.Warn("settings not applied", "error", err)
		}
	}
	return nil
}

// Statuses returns a snapshot of every live session, ordered by id.
func (s *Server) Statuses() []tracking.Status {
	s.mu.RLock()
	out := make([]tracking.Status, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.tracker.Status())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Session < out[j].Session })
	return out
}

// OnStatus broadcasts a session's status to status viewers.
func (s *Server) OnStatus(st tracking.Status) {
	msg, err := protocol.NewMessage(protocol.TypeStatus, st)
	if err != nil {
		return
	}
	b, err := msg.Bytes()
	if err != nil {
		return
	}
	s.statusHub.Broadcast(hub.NewJSONMessage(b))
}

func (s *Server) add(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	log.Info("session opened", "session", sess.id, "sessions", count)
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	log.Info("session closed", "session", id, "sessions", count)
}
