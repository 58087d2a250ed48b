package web

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-gazereader/pkg/hub"
	"github.com/teslashibe/go-gazereader/pkg/protocol"
	"github.com/teslashibe/go-gazereader/pkg/tracking"
)

// journalTimeout bounds session bookkeeping writes
const journalTimeout = 2 * time.Second

// defaultSessionLimit is how many journal sessions /api/sessions returns
const defaultSessionLimit = 20

// handleStatus returns every live session's status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sessions": s.Statuses(),
		"viewers":  s.statusHub.ClientCount(),
	})
}

// handleGetSettings returns the settings for new sessions
func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.Settings())
}

// handlePutSettings merges the body over the current settings and applies them
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	st := s.Settings()
	if err := json.Unmarshal(c.Body(), &st); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid settings: " + err.Error(),
		})
	}
	if err := s.SetSettings(st); err != nil {
		var se *tracking.SettingsError
		if errors.As(err, &se) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
				"field": se.Field,
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(st)
}

// handleSessions lists recent journal sessions
func (s *Server) handleSessions(c *fiber.Ctx) error {
	if s.journal == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "journal disabled",
		})
	}
	sessions, err := s.journal.Sessions(c.UserContext(), c.QueryInt("limit", defaultSessionLimit))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(sessions)
}

// handleSessionWS runs one tracker for the lifetime of a page connection
func (s *Server) handleSessionWS(c *websocket.Conn) {
	id := uuid.New().String()
	settings := s.Settings()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	sess := newSession(id, s.config, settings)
	sess.tracker.SetStatusListener(s)
	if s.journal != nil {
		sess.tracker.SetJournal(s.journal)
		jctx, jcancel := context.WithTimeout(ctx, journalTimeout)
		if err := s.journal.StartSession(jctx, id, s.profile); err != nil {
			sess.log.Warn("session not journaled", "error", err)
		}
		jcancel()
	}

	go sess.tracker.Run(ctx)
	go sess.writePump(c)
	defer func() {
		// The connection must not be written once the handler returns.
		sess.close()
		<-sess.written
	}()

	if err := sess.applySettings(settings); err != nil {
		sess.log.Warn("settings not applied", "error", err)
	}
	s.add(sess)
	defer s.remove(id)

	if err := sess.sendMessage(protocol.TypeSession, fiber.Map{"id": id, "settings": settings}); err != nil {
		return
	}
	sess.readLoop(ctx, c)

	if s.journal != nil {
		jctx, jcancel := context.WithTimeout(context.Background(), journalTimeout)
		defer jcancel()
		if err := s.journal.EndSession(jctx, id); err != nil {
			sess.log.Warn("session end not journaled", "error", err)
		}
	}
}

// handleStatusWS streams status updates to a viewer
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if client == nil {
		return
	}
	client.Run()
}
