package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-gazereader/internal/log"
	"github.com/teslashibe/go-gazereader/pkg/bionic"
	"github.com/teslashibe/go-gazereader/pkg/calibration"
	"github.com/teslashibe/go-gazereader/pkg/debug"
	"github.com/teslashibe/go-gazereader/pkg/focus"
	"github.com/teslashibe/go-gazereader/pkg/gaze"
	"github.com/teslashibe/go-gazereader/pkg/journal"
	"github.com/teslashibe/go-gazereader/pkg/opacity"
	"github.com/teslashibe/go-gazereader/pkg/pacing"
)

// journalTimeout bounds each journal write made from the loop.
const journalTimeout = 2 * time.Second

// Layout is the scroll position and size of the reader's viewport.
type Layout struct {
	Viewport gaze.Viewport `json:"viewport"`
	ScrollY  float64       `json:"scrollY"`
}

// dirty marks the visuals to send on the next frame.
type dirty struct {
	looking    bool
	cursor     bool
	focus      bool
	opacity    bool
	reading    bool
	target     bool
	calibrated bool
}

// Tracker runs the gaze-to-focus pipeline for one reader. All component
// state is owned by the goroutine running Run; other goroutines interact
// through Submit and the command methods.
type Tracker struct {
	id       string
	config   Config
	oracle   gaze.Oracle
	surface  focus.Surface
	renderer Renderer
	journal  Journal
	listener StatusListener
	log      *slog.Logger
	now      func() time.Time

	samples  chan gaze.Sample
	cmds     chan func()
	done     chan struct{}
	overflow atomic.Uint64

	// Owned by the loop
	perception *Perception
	resolver   *focus.Resolver
	regions    []focus.Region
	layout     Layout
	field      *opacity.Field
	throttle   *opacity.Throttle
	guard      *pacing.Guard
	machine    *pacing.Machine
	document   string
	sequencer  *calibration.Sequencer
	settings   Settings

	running     bool
	looking     bool
	pending     dirty
	statusDirty bool

	// Published snapshot
	mu     sync.RWMutex
	status Status
}

// New creates a tracker. If oracle also implements gaze.Trainer, it
// receives the calibration training points.
func New(id string, config Config, oracle gaze.Oracle, surface focus.Surface, renderer Renderer) *Tracker {
	trainer, _ := oracle.(gaze.Trainer)
	settings := DefaultSettings()

	t := &Tracker{
		id:       id,
		config:   config,
		oracle:   oracle,
		surface:  surface,
		renderer: renderer,
		log:      log.With("session", id),
		now:      time.Now,

		samples: make(chan gaze.Sample, max(config.SampleBuffer, 1)),
		cmds:    make(chan func()),
		done:    make(chan struct{}),

		perception: NewPerception(config),
		resolver:   focus.NewResolver(0),
		field:      opacity.NewField(settings.OpacityParams()),
		throttle:   opacity.NewThrottle(config.OpacityThrottle),
		guard:      pacing.NewGuard(),
		sequencer:  calibration.NewSequencer(trainer),
		settings:   settings,
	}
	t.status = t.snapshot()
	return t
}

// SetJournal sets where reading progress is recorded. Call before Run.
func (t *Tracker) SetJournal(j Journal) {
	t.journal = j
}

// SetStatusListener sets the status observer. Call before Run.
func (t *Tracker) SetStatusListener(l StatusListener) {
	t.listener = l
}

// ID returns the session id.
func (t *Tracker) ID() string {
	return t.id
}

// Run processes samples, timers and commands until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	frameTicker := time.NewTicker(t.config.FrameInterval)
	statusTicker := time.NewTicker(t.config.StatusInterval)
	defer frameTicker.Stop()
	defer statusTicker.Stop()
	defer close(t.done)

	t.log.Info("tracker started",
		"history", t.config.HistorySize,
		"frame", t.config.FrameInterval,
		"timeout", t.config.GazeTimeout)

	for {
		select {
		case <-ctx.Done():
			t.stop()
			t.publishStatus()
			t.log.Info("tracker stopped")
			return

		case s := <-t.samples:
			t.handleSample(s)

		case key := <-t.guard.C():
			t.guardFired(key)

		case fn := <-t.cmds:
			// Commands see every sample submitted before them.
			t.drainSamples()
			fn()

		case now := <-frameTicker.C:
			t.frame(now)

		case <-statusTicker.C:
			t.publishStatus()
		}
	}
}

// Submit queues a raw sample without blocking. It reports false when the
// queue is full and the sample was dropped.
func (t *Tracker) Submit(s gaze.Sample) bool {
	select {
	case t.samples <- s:
		return true
	default:
		t.overflow.Add(1)
		return false
	}
}

// do runs fn on the loop and waits for it.
func (t *Tracker) do(fn func() error) error {
	result := make(chan error, 1)
	cmd := func() {
		err := fn()
		t.statusDirty = true
		t.storeStatus()
		result <- err
	}
	select {
	case t.cmds <- cmd:
	case <-t.done:
		return ErrNotRunning
	}
	return <-result
}

// --- Commands ---

// Start begins gaze delivery. On oracle failure nothing is activated and
// the error wraps ErrOracleUnavailable.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.oracle.Begin(ctx); err != nil {
		t.log.Warn("gaze oracle failed to start", "error", err)
		return fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	return t.do(func() error {
		t.begin()
		return nil
	})
}

// Stop halts sample delivery and clears every visual before returning.
func (t *Tracker) Stop() error {
	var wasRunning bool
	if err := t.do(func() error {
		wasRunning = t.stop()
		return nil
	}); err != nil {
		return err
	}
	if !wasRunning {
		return nil
	}
	if err := t.oracle.Pause(); err != nil {
		return fmt.Errorf("tracking: pause oracle: %w", err)
	}
	return nil
}

// SetLayout records a scroll or resize and rescans the regions.
func (t *Tracker) SetLayout(l Layout) error {
	return t.do(func() error {
		t.setLayout(l)
		return nil
	})
}

// Rescan re-queries the surface for focus regions.
func (t *Tracker) Rescan() error {
	return t.do(func() error {
		t.rescan()
		return nil
	})
}

// SetFragments replaces the positioned text fragments of the current page.
func (t *Tracker) SetFragments(frags []opacity.Fragment) error {
	return t.do(func() error {
		t.field.SetFragments(frags)
		t.pending.opacity = true
		return nil
	})
}

// LoadDocument opens a document for paced reading, resuming from the
// journal's last checkpoint for id when there is one.
func (t *Tracker) LoadDocument(ctx context.Context, id string, lines []string) error {
	var resume *journal.Checkpoint
	if t.journal != nil && id != "" {
		cp, err := t.journal.LastCheckpoint(ctx, id)
		switch {
		case err == nil:
			resume = &cp
		case errors.Is(err, journal.ErrNotFound):
		default:
			t.log.Warn("checkpoint lookup failed", "document", id, "error", err)
		}
	}
	return t.do(func() error {
		return t.load(id, lines, resume)
	})
}

// Jump moves the reading cursor to a word on the current page.
func (t *Tracker) Jump(word int) error {
	return t.do(func() error {
		return t.jump(word)
	})
}

// Key applies a navigation key.
func (t *Tracker) Key(k Key) error {
	return t.do(func() error {
		return t.key(k)
	})
}

// Calibrate starts (or restarts) the calibration sequence.
func (t *Tracker) Calibrate() error {
	return t.do(t.calibrate)
}

// Confirm records one confirmation at the current calibration target.
func (t *Tracker) Confirm() error {
	return t.do(t.confirm)
}

// CancelCalibration abandons a running calibration sequence.
func (t *Tracker) CancelCalibration() error {
	return t.do(func() error {
		t.sequencer.Cancel()
		t.pending.calibrated = true
		t.syncDimming()
		return nil
	})
}

// ApplySettings validates and applies new reader settings.
func (t *Tracker) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return t.do(func() error {
		t.applySettings(s)
		return nil
	})
}

// Settings returns the active reader settings.
func (t *Tracker) Settings() Settings {
	return t.Status().Settings
}

// Status returns the latest published snapshot.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// --- Loop internals ---

func (t *Tracker) handleSample(s gaze.Sample) {
	if !t.running {
		return
	}
	p, err := t.perception.Accept(s, t.now())
	if err != nil {
		if isRange(err) {
			debug.GazeLog("👁️  Dropped out-of-range sample: %v\n", err)
		} else {
			debug.GazeLog("👁️  Dropped sample: %v\n", err)
		}
		t.statusDirty = true
		return
	}
	debug.GazeLog("👁️  Gaze (%.0f, %.0f) → smoothed (%.0f, %.0f)\n", s.X, s.Y, p.X, p.Y)

	t.statusDirty = true
	t.pending.cursor = true
	if !t.looking {
		t.looking = true
		t.pending.looking = true
		t.log.Debug("gaze resumed")
	}

	// Focus and pacing decisions wait for calibration.
	if !t.sequencer.Calibrated() {
		return
	}
	if reg, changed := t.resolver.Update(p, t.regions, t.layout.ScrollY); changed {
		debug.Log("🎯 Focus → %s\n", reg.ID)
		if t.resolver.State().Active {
			t.pending.focus = true
		}
	}
	if t.machine != nil {
		if tr, ok := t.machine.Observe(p.X); ok {
			t.transitioned(tr)
		}
	}
	t.pending.opacity = true
}

func (t *Tracker) drainSamples() {
	for {
		select {
		case s := <-t.samples:
			t.handleSample(s)
		default:
			return
		}
	}
}

func (t *Tracker) guardFired(key pacing.Position) {
	if t.machine == nil {
		return
	}
	if tr, ok := t.machine.GuardFired(key); ok {
		debug.Log("⏱️  Guard turned page at line %d page %d\n", key.Line, key.Page)
		t.transitioned(tr)
	}
}

// frame runs the watchdog and sends the visuals batched since the last frame.
func (t *Tracker) frame(now time.Time) {
	if t.looking && !t.perception.Looking(now, t.config.GazeTimeout) {
		t.looking = false
		t.pending.looking = true
		t.statusDirty = true
		t.log.Debug("gaze lost", "after", t.config.GazeTimeout)
	}
	t.flush(now)
}

func (t *Tracker) flush(now time.Time) {
	d := t.pending
	t.pending = dirty{}
	sent := false

	if d.looking {
		t.renderer.Looking(t.looking)
		sent = true
	}
	if d.calibrated {
		t.renderer.Calibrated(t.sequencer.Calibrated())
		sent = true
	}
	if d.target {
		if target, ok := t.sequencer.Target(); ok {
			st := t.sequencer.State()
			t.renderer.ShowTarget(Target{X: target.X, Y: target.Y, Index: st.PointIndex, Count: st.Confirmations})
			sent = true
		}
	}
	if d.focus {
		focus.Apply(t.surface, t.resolver.Visuals(t.regions))
		sent = true
	}
	if d.reading {
		t.renderer.ShowReading(t.reading())
		sent = true
	}

	// Gaze-driven visuals are suspended while the reader looks away.
	if t.looking {
		p, _ := t.perception.Point()
		if d.cursor {
			t.renderer.MoveCursor(p)
			sent = true
		}
		if d.opacity && t.field.Len() > 0 && t.sequencer.Calibrated() {
			if t.throttle.Allow(now) {
				t.renderer.ApplyOpacity(t.field.Compute(p))
				sent = true
			} else {
				t.pending.opacity = true
			}
		}
	}

	if sent {
		t.renderer.Flush()
	}
}

func (t *Tracker) begin() {
	if t.running {
		return
	}
	t.running = true
	t.perception.Reset()
	t.syncDimming()
	t.log.Info("tracking started", "calibrated", t.sequencer.Calibrated())
}

// stop resets every per-tick visual synchronously. It reports whether
// tracking was running.
func (t *Tracker) stop() bool {
	if !t.running {
		return false
	}
	t.running = false
	t.drainSamples()

	if t.machine != nil {
		t.machine.Stop()
	}
	t.guard.Cancel()
	t.sequencer.Cancel()
	t.perception.Reset()
	t.looking = false
	t.resolver.Deactivate()
	t.pending = dirty{}

	t.clearVisuals()
	t.renderer.Looking(false)
	t.renderer.Flush()
	t.statusDirty = true
	t.log.Info("tracking stopped")
	return true
}

// clearVisuals undims every region and returns fragments to full opacity.
func (t *Tracker) clearVisuals() {
	focus.Apply(t.surface, t.resolver.Visuals(t.regions))
	if t.field.Len() > 0 {
		t.renderer.ResetOpacity(t.field.Reset())
	}
	t.throttle.Reset()
}

// syncDimming activates the resolver while tracking is calibrated and
// dimming is enabled.
func (t *Tracker) syncDimming() {
	want := t.running && t.sequencer.Calibrated() && t.settings.Dimming()
	if want == t.resolver.State().Active {
		return
	}
	if want {
		t.resolver.Activate(t.regions)
	} else {
		t.resolver.Deactivate()
	}
	t.pending.focus = true
}

func (t *Tracker) setLayout(l Layout) {
	t.layout = l
	t.perception.SetViewport(l.Viewport)
	t.resolver.SetViewportHeight(l.Viewport.Height)
	if t.machine != nil {
		t.machine.SetScreenWidth(l.Viewport.Width)
	}
	t.rescan()
}

func (t *Tracker) rescan() {
	regions, err := t.surface.ScanRegions()
	if err != nil {
		t.log.Warn("region scan failed", "error", err)
		regions = nil
	}
	t.regions = focus.Filter(regions, focus.MinRegionHeight, focus.MinRegionTextLen)
	t.resolver.Retain(t.regions)
	if t.resolver.State().Active {
		t.resolver.Activate(t.regions)
	}
	t.pending.focus = true
	debug.Log("📐 %d focus regions (scroll %.0f)\n", len(t.regions), t.layout.ScrollY)
}

func (t *Tracker) pacingConfig() pacing.Config {
	cfg := t.config.Pacing
	cfg.WordsPerPage = t.settings.WordsPerPage
	cfg.AdvanceThreshold = t.settings.AdvanceThreshold()
	return cfg
}

func (t *Tracker) load(id string, lines []string, resume *journal.Checkpoint) error {
	m, err := pacing.NewMachine(t.pacingConfig(), lines, t.guard)
	if err != nil {
		return err
	}
	if t.machine != nil {
		t.machine.Stop()
	}
	m.Start(t.layout.Viewport.Width)
	if resume != nil && !resume.Done {
		if err := m.Seek(resume.Line, resume.Page); err != nil {
			t.log.Debug("checkpoint no longer fits document", "document", id, "error", err)
		}
	}
	t.machine, t.document = m, id
	t.pending.reading = true
	t.log.Info("document loaded", "document", id, "line", m.Position().Line, "page", m.Position().Page)
	return nil
}

func (t *Tracker) jump(word int) error {
	if t.machine == nil {
		return ErrNoDocument
	}
	tr, err := t.machine.JumpTo(word)
	if err != nil {
		return err
	}
	t.transitioned(tr)
	return nil
}

func (t *Tracker) key(k Key) error {
	if t.machine == nil {
		return ErrNoDocument
	}
	var (
		tr pacing.Transition
		ok bool
	)
	switch k {
	case KeyNext:
		tr, ok = t.machine.Next()
	case KeyPrev:
		tr, ok = t.machine.Prev()
	case KeyNextLine:
		tr, ok = t.machine.NextLine()
	case KeyPrevLine:
		tr, ok = t.machine.PrevLine()
	case KeyExit:
		t.checkpoint()
		t.machine.Stop()
		t.machine, t.document = nil, ""
		t.pending.reading = true
		return nil
	default:
		return fmt.Errorf("tracking: unknown key %q", k)
	}
	if ok {
		t.transitioned(tr)
	}
	return nil
}

func (t *Tracker) transitioned(tr pacing.Transition) {
	t.pending.reading = true
	t.statusDirty = true
	debug.Log("📖 %s: line %d page %d word %d\n", tr.Kind, tr.To.Line, tr.To.Page, tr.To.Word)

	switch tr.Kind {
	case pacing.PageTurned, pacing.LineChanged:
		t.checkpoint()
	case pacing.Finished:
		t.log.Info("document finished", "document", t.document)
		t.checkpoint()
	}
}

func (t *Tracker) checkpoint() {
	if t.journal == nil || t.machine == nil || t.document == "" {
		return
	}
	pos := t.machine.Position()
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	err := t.journal.SaveCheckpoint(ctx, journal.Checkpoint{
		DocumentID: t.document,
		SessionID:  t.id,
		Line:       pos.Line,
		Page:       pos.Page,
		Word:       pos.Word,
		Done:       t.machine.Done(),
	})
	if err != nil {
		t.log.Warn("checkpoint failed", "document", t.document, "error", err)
	}
}

func (t *Tracker) reading() Reading {
	if t.machine == nil {
		return Reading{}
	}
	r := Reading{
		Document:  t.document,
		Cursor:    t.machine.Cursor(),
		LineGuide: t.settings.LineGuideEnabled,
	}
	if t.settings.BionicEnabled && !r.Done {
		r.Bionic = bionic.Words(r.Words, t.settings.BionicIntensity)
	}
	return r
}

func (t *Tracker) calibrate() error {
	if !t.running {
		return ErrOracleIdle
	}
	if _, err := t.sequencer.Begin(t.layout.Viewport); err != nil {
		return err
	}
	t.syncDimming()
	t.clearVisuals()
	t.pending.target = true
	t.log.Info("calibration started", "confirmations", calibration.TotalConfirmations())
	return nil
}

func (t *Tracker) confirm() error {
	if t.sequencer.State().Phase == calibration.Complete {
		return nil
	}
	step, err := t.sequencer.Confirm()
	if err != nil {
		return err
	}
	if !step.Done {
		t.pending.target = true
		return nil
	}

	t.pending.calibrated = true
	t.syncDimming()
	t.pending.opacity = true
	t.log.Info("calibration complete")

	if t.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		if err := t.journal.RecordCalibration(ctx, t.id, calibration.TotalConfirmations()); err != nil {
			t.log.Warn("calibration not journaled", "error", err)
		}
	}
	return nil
}

func (t *Tracker) applySettings(s Settings) {
	old := t.settings
	t.settings = s
	t.field.SetParams(s.OpacityParams())
	if t.machine != nil {
		t.machine.SetAdvanceThreshold(s.AdvanceThreshold())
		if s.WordsPerPage != old.WordsPerPage {
			t.machine.SetPagination(s.WordsPerPage, t.config.Pacing.CharsPerPage)
		}
		t.pending.reading = true
	}
	t.syncDimming()
	t.pending.opacity = true
	t.log.Debug("settings applied", "radius", s.FocusRadius, "falloff", s.FalloffType)
}
