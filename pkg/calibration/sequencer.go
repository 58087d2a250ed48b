package calibration

import (
	"fmt"

	"seehuhn.de/go/geom/vec"

	"github.com/teslashibe/go-gazereader/pkg/gaze"
)

// Phase is the sequencer's lifecycle position.
type Phase int

const (
	Idle Phase = iota
	Awaiting
	Complete
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Awaiting:
		return "awaiting"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = Idle
	case "awaiting":
		*p = Awaiting
	case "complete":
		*p = Complete
	default:
		return fmt.Errorf("calibration: unknown phase %q", b)
	}
	return nil
}

// State is a snapshot of calibration progress.
type State struct {
	Phase         Phase `json:"phase"`
	PointIndex    int   `json:"pointIndex"`
	Confirmations int   `json:"confirmations"`
	Calibrated    bool  `json:"calibrated"`
}

// Step describes what a confirmation produced.
type Step struct {
	// Target is the point the user should look at next. Valid unless Done.
	Target vec.Vec2
	// Index of Target in the grid.
	Index int
	// Advanced is true when the previous target received its last confirmation.
	Advanced bool
	// Done is true when this confirmation completed the sequence.
	Done bool
}

// Sequencer is not safe for concurrent use; the tracker loop owns it.
type Sequencer struct {
	trainer gaze.Trainer

	phase      Phase
	targets    []vec.Vec2
	index      int
	count      int
	calibrated bool
}

// NewSequencer creates an idle sequencer. A nil trainer discards samples.
func NewSequencer(trainer gaze.Trainer) *Sequencer {
	return &Sequencer{trainer: trainer}
}

// Begin (re)starts the sequence for the given viewport. Any earlier
// calibration is forgotten until the new sequence completes.
func (s *Sequencer) Begin(v gaze.Viewport) (vec.Vec2, error) {
	if v.IsZero() {
		return vec.Vec2{}, ErrNoViewport
	}
	s.targets = Targets(v.Width, v.Height)
	s.phase = Awaiting
	s.index = 0
	s.count = 0
	s.calibrated = false
	return s.targets[0], nil
}

// Confirm records that the user is looking at the current target.
// Confirming after completion is a no-op.
func (s *Sequencer) Confirm() (Step, error) {
	switch s.phase {
	case Idle:
		return Step{}, ErrNotStarted
	case Complete:
		return Step{Done: true, Index: len(s.targets) - 1}, nil
	}

	t := s.targets[s.index]
	if s.trainer != nil {
		s.trainer.RecordTrainingPoint(t.X, t.Y)
	}
	s.count++
	if s.count < ConfirmationsPerPoint {
		return Step{Target: t, Index: s.index}, nil
	}

	s.count = 0
	s.index++
	if s.index >= len(s.targets) {
		s.index = len(s.targets) - 1
		s.phase = Complete
		s.calibrated = true
		return Step{Index: s.index, Advanced: true, Done: true}, nil
	}
	return Step{Target: s.targets[s.index], Index: s.index, Advanced: true}, nil
}

// Cancel abandons a running sequence. A completed calibration is kept.
func (s *Sequencer) Cancel() {
	if s.phase == Awaiting {
		s.phase = Idle
		s.index = 0
		s.count = 0
	}
}

// Calibrated reports whether a full sequence has completed.
func (s *Sequencer) Calibrated() bool { return s.calibrated }

// Target returns the current target while a sequence is running.
func (s *Sequencer) Target() (vec.Vec2, bool) {
	if s.phase != Awaiting {
		return vec.Vec2{}, false
	}
	return s.targets[s.index], true
}

// State returns a snapshot of progress.
func (s *Sequencer) State() State {
	return State{
		Phase:         s.phase,
		PointIndex:    s.index,
		Confirmations: s.count,
		Calibrated:    s.calibrated,
	}
}

