package tracking

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/teslashibe/go-gazereader/pkg/calibration"
	"github.com/teslashibe/go-gazereader/pkg/focus"
	"github.com/teslashibe/go-gazereader/pkg/gaze"
	"github.com/teslashibe/go-gazereader/pkg/journal"
	"github.com/teslashibe/go-gazereader/pkg/opacity"
)

// mockOracle records lifecycle and training calls
type mockOracle struct {
	mu       sync.Mutex
	beginErr error
	begins   int
	pauses   int
	training []vec.Vec2
}

func (m *mockOracle) Begin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.begins++
	return m.beginErr
}

func (m *mockOracle) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	return nil
}

func (m *mockOracle) RecordTrainingPoint(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.training = append(m.training, vec.Vec2{X: x, Y: y})
}

// mockSurface serves fixed regions and records dimming
type mockSurface struct {
	mu      sync.Mutex
	regions []focus.Region
	scanErr error
	dimmed  map[string]bool
}

func (m *mockSurface) ScanRegions() ([]focus.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.regions), m.scanErr
}

func (m *mockSurface) ApplyFocusVisuals(regionID string, dimmed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimmed == nil {
		m.dimmed = map[string]bool{}
	}
	m.dimmed[regionID] = dimmed
}

func (m *mockSurface) isDimmed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dimmed[id]
}

// mockRenderer records every visual update
type mockRenderer struct {
	mu         sync.Mutex
	opacity    [][]opacity.Weight
	resets     [][]opacity.Weight
	cursors    []vec.Vec2
	readings   []Reading
	targets    []Target
	calibrated []bool
	looking    []bool
	flushes    int
}

func (m *mockRenderer) ApplyOpacity(w []opacity.Weight) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opacity = append(m.opacity, slices.Clone(w))
}

func (m *mockRenderer) ResetOpacity(w []opacity.Weight) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, slices.Clone(w))
}

func (m *mockRenderer) MoveCursor(p vec.Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors = append(m.cursors, p)
}

func (m *mockRenderer) ShowReading(r Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, r)
}

func (m *mockRenderer) ShowTarget(t Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = append(m.targets, t)
}

func (m *mockRenderer) Calibrated(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calibrated = append(m.calibrated, ok)
}

func (m *mockRenderer) Looking(looking bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.looking = append(m.looking, looking)
}

func (m *mockRenderer) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
}

func (m *mockRenderer) opacityCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.opacity)
}

func (m *mockRenderer) lastReading() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readings) == 0 {
		return Reading{}
	}
	return m.readings[len(m.readings)-1]
}

func (m *mockRenderer) lastLooking() (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.looking) == 0 {
		return false, false
	}
	return m.looking[len(m.looking)-1], true
}

// mockJournal keeps checkpoints in memory
type mockJournal struct {
	mu           sync.Mutex
	checkpoints  map[string]journal.Checkpoint
	saved        []journal.Checkpoint
	calibrations int
}

func (m *mockJournal) RecordCalibration(ctx context.Context, sessionID string, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calibrations++
	return nil
}

func (m *mockJournal) SaveCheckpoint(ctx context.Context, cp journal.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkpoints == nil {
		m.checkpoints = map[string]journal.Checkpoint{}
	}
	m.checkpoints[cp.DocumentID] = cp
	m.saved = append(m.saved, cp)
	return nil
}

func (m *mockJournal) LastCheckpoint(ctx context.Context, documentID string) (journal.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.checkpoints[documentID]
	if !ok {
		return journal.Checkpoint{}, journal.ErrNotFound
	}
	return cp, nil
}

var errNoCamera = errors.New("camera permission denied")

var testViewport = gaze.Viewport{Width: 1000, Height: 800}

// region builds a focus region that passes the scan thresholds.
func region(id string, top, bottom float64) focus.Region {
	return focus.Region{
		ID:      id,
		Box:     rect.Rect{LLx: 0, LLy: top, URx: 800, URy: bottom},
		TextLen: 200,
	}
}

type harness struct {
	tr       *Tracker
	oracle   *mockOracle
	surface  *mockSurface
	renderer *mockRenderer
	journal  *mockJournal
	clock    time.Time
}

// newHarness builds a tracker driven directly, without Run, with a
// single-sample smoother so gaze points are exact.
func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HistorySize = 1

	h := &harness{
		oracle:   &mockOracle{},
		surface:  &mockSurface{regions: []focus.Region{region("a", 0, 100), region("b", 200, 300)}},
		renderer: &mockRenderer{},
		journal:  &mockJournal{},
		clock:    time.Unix(1000, 0),
	}
	h.tr = New("test", cfg, h.oracle, h.surface, h.renderer)
	h.tr.SetJournal(h.journal)
	h.tr.now = func() time.Time { return h.clock }
	t.Cleanup(h.tr.guard.Cancel)

	h.tr.begin()
	h.tr.setLayout(Layout{Viewport: testViewport})
	return h
}

func gazeSample(x, y float64) gaze.Sample {
	return gaze.Sample{X: x, Y: y, Timestamp: time.Now()}
}

func (h *harness) sample(x, y float64) {
	h.tr.handleSample(gaze.Sample{X: x, Y: y, Timestamp: h.clock})
}

func (h *harness) frame() {
	h.tr.frame(h.clock)
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func (h *harness) calibrate(t *testing.T) {
	t.Helper()
	if err := h.tr.calibrate(); err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	for i := 0; i < calibration.TotalConfirmations(); i++ {
		if err := h.tr.confirm(); err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
	}
	if !h.tr.sequencer.Calibrated() {
		t.Fatal("Expected tracker to be calibrated")
	}
}
