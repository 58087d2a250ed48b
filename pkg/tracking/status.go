package tracking

import (
	"time"

	"github.com/teslashibe/go-gazereader/pkg/calibration"
	"github.com/teslashibe/go-gazereader/pkg/focus"
	"github.com/teslashibe/go-gazereader/pkg/pacing"
)

// Point is a screen position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Status is a point-in-time view of a tracker, safe to read from any goroutine.
type Status struct {
	Session     string            `json:"session"`
	Running     bool              `json:"running"`
	Looking     bool              `json:"looking"`
	Calibration calibration.State `json:"calibration"`
	Focus       focus.State       `json:"focus"`
	Gaze        *Point            `json:"gaze,omitempty"`

	Document string           `json:"document,omitempty"`
	Reading  *pacing.Position `json:"reading,omitempty"`
	Finished bool             `json:"finished"`

	Regions   int `json:"regions"`
	Fragments int `json:"fragments"`

	Accepted uint64 `json:"accepted"`
	Dropped  uint64 `json:"dropped"`
	Overflow uint64 `json:"overflow"`

	Settings  Settings  `json:"settings"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// snapshot builds a status from loop-owned state.
func (t *Tracker) snapshot() Status {
	accepted, dropped := t.perception.Counts()
	s := Status{
		Session:     t.id,
		Running:     t.running,
		Looking:     t.looking,
		Calibration: t.sequencer.State(),
		Focus:       t.resolver.State(),
		Document:    t.document,
		Regions:     len(t.regions),
		Fragments:   t.field.Len(),
		Accepted:    accepted,
		Dropped:     dropped,
		Overflow:    t.overflow.Load(),
		Settings:    t.settings,
		UpdatedAt:   t.now(),
	}
	if p, ok := t.perception.Point(); ok {
		s.Gaze = &Point{X: p.X, Y: p.Y}
	}
	if t.machine != nil {
		pos := t.machine.Position()
		s.Reading = &pos
		s.Finished = t.machine.Done()
	}
	return s
}

func (t *Tracker) storeStatus() {
	s := t.snapshot()
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// publishStatus refreshes the snapshot and notifies the listener if
// anything changed since the last publish.
func (t *Tracker) publishStatus() {
	if !t.statusDirty {
		return
	}
	t.statusDirty = false
	t.storeStatus()
	if t.listener != nil {
		t.listener.OnStatus(t.Status())
	}
}
