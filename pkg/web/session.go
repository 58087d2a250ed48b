package web

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/teslashibe/go-gazereader/internal/log"
	"github.com/teslashibe/go-gazereader/pkg/calibration"
	"github.com/teslashibe/go-gazereader/pkg/debug"
	"github.com/teslashibe/go-gazereader/pkg/focus"
	"github.com/teslashibe/go-gazereader/pkg/gaze"
	"github.com/teslashibe/go-gazereader/pkg/opacity"
	"github.com/teslashibe/go-gazereader/pkg/protocol"
	"github.com/teslashibe/go-gazereader/pkg/tracking"
)

const (
	// oracleTimeout bounds how long Begin waits for the page's oracle reply
	oracleTimeout = 10 * time.Second

	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for any read, pongs included
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize fits a full document message
	maxMessageSize = 1 << 20

	// outBuffer is how many encoded frames may queue for the page
	outBuffer = 256
)

// Session connects one reading page to its tracker. The page is the
// tracker's focus surface, renderer and gaze oracle.
type Session struct {
	id      string
	tracker *tracking.Tracker
	log     *slog.Logger

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
	written   chan struct{} // closed when writePump returns

	// Oracle start replies from the page
	oracle chan protocol.OracleData

	mu      sync.Mutex
	regions []focus.Region
	blur    float64

	// Filled by the tracker loop between flushes
	visuals []protocol.VisualData
	batch   []*protocol.Message
}

func newSession(id string, cfg tracking.Config, settings tracking.Settings) *Session {
	s := &Session{
		id:      id,
		log:     log.With("session", id),
		out:     make(chan []byte, outBuffer),
		done:    make(chan struct{}),
		written: make(chan struct{}),
		oracle:  make(chan protocol.OracleData, 1),
		blur:    settings.BlurAmount,
	}
	s.tracker = tracking.New(id, cfg, s, s, s)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Tracker returns the session's tracker.
func (s *Session) Tracker() *tracking.Tracker {
	return s.tracker
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// --- Outbound ---

func (s *Session) send(data []byte) error {
	select {
	case s.out <- data:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) sendMessage(msgType protocol.MessageType, data interface{}) error {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	b, err := msg.Bytes()
	if err != nil {
		return err
	}
	return s.send(b)
}

func (s *Session) sendError(command protocol.MessageType, err error) {
	msg, merr := protocol.NewErrorMessage(command, err)
	if merr != nil {
		return
	}
	if b, merr := msg.Bytes(); merr == nil {
		s.send(b)
	}
}

// queue adds a message to the current batch. A coalesced message replaces
// an earlier one of the same type, keeping its place in the batch.
func (s *Session) queue(msgType protocol.MessageType, data interface{}, coalesce bool) {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		s.log.Warn("dropping unencodable message", "type", msgType, "error", err)
		return
	}
	if coalesce {
		for i, m := range s.batch {
			if m.Type == msgType {
				s.batch[i] = msg
				return
			}
		}
	}
	s.batch = append(s.batch, msg)
}

// --- focus.Surface ---

// ScanRegions returns the regions the page last reported.
func (s *Session) ScanRegions() ([]focus.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.regions), nil
}

// ApplyFocusVisuals batches a region's dimming until the next Flush.
func (s *Session) ApplyFocusVisuals(regionID string, dimmed bool) {
	s.visuals = append(s.visuals, protocol.VisualData{ID: regionID, Dimmed: dimmed})
}

// --- tracking.Renderer ---

func weightData(w []opacity.Weight) []protocol.WeightData {
	out := make([]protocol.WeightData, len(w))
	for i, x := range w {
		out[i] = protocol.WeightData{ID: x.ID, Opacity: x.Opacity}
	}
	return out
}

func (s *Session) ApplyOpacity(w []opacity.Weight) {
	s.queue(protocol.TypeOpacity, protocol.OpacityData{Weights: weightData(w)}, true)
}

func (s *Session) ResetOpacity(w []opacity.Weight) {
	s.queue(protocol.TypeOpacityReset, protocol.OpacityData{Weights: weightData(w)}, true)
}

func (s *Session) MoveCursor(p vec.Vec2) {
	s.queue(protocol.TypeCursor, protocol.PointData{X: p.X, Y: p.Y}, true)
}

func (s *Session) ShowReading(r tracking.Reading) {
	s.queue(protocol.TypeReading, r, true)
}

func (s *Session) ShowTarget(t tracking.Target) {
	s.queue(protocol.TypeTarget, protocol.TargetData{
		X:     t.X,
		Y:     t.Y,
		Index: t.Index,
		Count: t.Count,
		Total: calibration.ConfirmationsPerPoint,
	}, true)
}

func (s *Session) Calibrated(ok bool) {
	s.queue(protocol.TypeCalibrated, protocol.CalibratedData{Calibrated: ok}, true)
}

func (s *Session) Looking(looking bool) {
	s.queue(protocol.TypeLooking, protocol.LookingData{Looking: looking}, true)
}

// Flush sends the batched region visuals first, then everything else in
// the order it was queued.
func (s *Session) Flush() {
	if len(s.visuals) > 0 {
		s.mu.Lock()
		blur := s.blur
		s.mu.Unlock()
		if err := s.sendMessage(protocol.TypeFocus, protocol.FocusData{Regions: s.visuals, BlurAmount: blur}); err != nil {
			s.log.Debug("focus not sent", "error", err)
		}
		s.visuals = nil
	}
	for _, msg := range s.batch {
		b, err := msg.Bytes()
		if err != nil {
			continue
		}
		if err := s.send(b); err != nil {
			s.log.Debug("batch not sent", "type", msg.Type, "error", err)
			break
		}
	}
	s.batch = s.batch[:0]
}

// --- gaze.Oracle and gaze.Trainer ---

// Begin asks the page to start its oracle and waits for the reply.
func (s *Session) Begin(ctx context.Context) error {
	// Discard a reply left over from an earlier request
	select {
	case <-s.oracle:
	default:
	}
	if err := s.sendMessage(protocol.TypeBegin, nil); err != nil {
		return err
	}

	timer := time.NewTimer(oracleTimeout)
	defer timer.Stop()
	select {
	case reply := <-s.oracle:
		if !reply.Ready {
			if reply.Error != "" {
				return fmt.Errorf("%w: %s", ErrOracleNotReady, reply.Error)
			}
			return ErrOracleNotReady
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: no reply after %v", ErrOracleNotReady, oracleTimeout)
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Pause asks the page to stop its oracle.
func (s *Session) Pause() error {
	return s.sendMessage(protocol.TypePause, nil)
}

// RecordTrainingPoint forwards a confirmed target to the page's oracle.
func (s *Session) RecordTrainingPoint(x, y float64) {
	s.queue(protocol.TypeTrain, protocol.PointData{X: x, Y: y}, false)
}

// --- Inbound ---

func (s *Session) applySettings(st tracking.Settings) error {
	if err := s.tracker.ApplySettings(st); err != nil {
		return err
	}
	s.mu.Lock()
	s.blur = st.BlurAmount
	s.mu.Unlock()
	return nil
}

// handle dispatches one message from the page.
func (s *Session) handle(ctx context.Context, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeGaze:
		g, err := msg.GetGazeData()
		if err != nil {
			return err
		}
		if !g.Valid() {
			debug.GazeLog("👁️  Dropped sample with no gaze\n")
			return nil
		}
		ts := time.Now()
		if g.T > 0 {
			ts = time.UnixMilli(g.T)
		}
		if !s.tracker.Submit(gaze.Sample{X: *g.X, Y: *g.Y, Timestamp: ts}) {
			debug.GazeLog("👁️  Sample queue full\n")
		}
		return nil

	case protocol.TypeRegions:
		data, err := msg.GetRegionsData()
		if err != nil {
			return err
		}
		regions := make([]focus.Region, len(data.Regions))
		for i, r := range data.Regions {
			regions[i] = focus.Region{
				ID:       r.ID,
				Box:      rect.Rect{LLx: r.Left, LLy: r.Top, URx: r.Right, URy: r.Bottom},
				TextLen:  r.TextLength,
				Detached: r.Detached,
			}
		}
		s.mu.Lock()
		s.regions = regions
		s.mu.Unlock()
		return s.tracker.Rescan()

	case protocol.TypeLayout:
		data, err := msg.GetLayoutData()
		if err != nil {
			return err
		}
		return s.tracker.SetLayout(tracking.Layout{
			Viewport: gaze.Viewport{Width: data.Width, Height: data.Height},
			ScrollY:  data.ScrollY,
		})

	case protocol.TypeFragments:
		data, err := msg.GetFragmentsData()
		if err != nil {
			return err
		}
		frags := make([]opacity.Fragment, len(data.Fragments))
		for i, f := range data.Fragments {
			frags[i] = opacity.Fragment{
				ID:  f.ID,
				Box: rect.Rect{LLx: f.X, LLy: f.Y, URx: f.X + f.Width, URy: f.Y + f.Height},
			}
		}
		return s.tracker.SetFragments(frags)

	case protocol.TypeDocument:
		data, err := msg.GetDocumentData()
		if err != nil {
			return err
		}
		lines := data.Lines
		if len(lines) == 0 && data.Text != "" {
			lines = strings.Split(data.Text, "\n")
		}
		return s.tracker.LoadDocument(ctx, data.ID, lines)

	case protocol.TypeStart:
		// Begin waits for an oracle reply that arrives on this reader.
		go func() {
			if err := s.tracker.Start(ctx); err != nil {
				s.sendError(protocol.TypeStart, err)
			}
		}()
		return nil

	case protocol.TypeStop:
		return s.tracker.Stop()

	case protocol.TypeCalibrate:
		return s.tracker.Calibrate()

	case protocol.TypeConfirm:
		return s.tracker.Confirm()

	case protocol.TypeCancelCalibration:
		return s.tracker.CancelCalibration()

	case protocol.TypeJump:
		data, err := msg.GetJumpData()
		if err != nil {
			return err
		}
		return s.tracker.Jump(data.Word)

	case protocol.TypeKey:
		data, err := msg.GetKeyData()
		if err != nil {
			return err
		}
		k, err := tracking.ParseKey(data.Key)
		if err != nil {
			return err
		}
		return s.tracker.Key(k)

	case protocol.TypeSettings:
		st := s.tracker.Settings()
		if err := msg.ParseData(&st); err != nil {
			return err
		}
		return s.applySettings(st)

	case protocol.TypeOracle:
		data, err := msg.GetOracleData()
		if err != nil {
			return err
		}
		select {
		case s.oracle <- *data:
		default:
			s.log.Debug("unexpected oracle reply", "ready", data.Ready)
		}
		return nil

	case protocol.TypePing:
		data, err := msg.GetPingData()
		if err != nil {
			return err
		}
		pong, err := protocol.NewPongMessage(data.ID, data.Timestamp, time.Now().UnixMilli())
		if err != nil {
			return err
		}
		b, err := pong.Bytes()
		if err != nil {
			return err
		}
		return s.send(b)

	default:
		return fmt.Errorf("web: unknown message type %q", msg.Type)
	}
}

// readLoop reads page messages until the connection closes.
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			s.sendError("", err)
			continue
		}
		if err := s.handle(ctx, msg); err != nil {
			s.log.Debug("command failed", "type", msg.Type, "error", err)
			s.sendError(msg.Type, err)
		}
	}
}

// writePump is the only writer on the connection.
func (s *Session) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer close(s.written)

	for {
		select {
		case data := <-s.out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}

		case <-s.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
