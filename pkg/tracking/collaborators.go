package tracking

import (
	"context"

	"seehuhn.de/go/geom/vec"

	"github.com/teslashibe/go-gazereader/pkg/bionic"
	"github.com/teslashibe/go-gazereader/pkg/journal"
	"github.com/teslashibe/go-gazereader/pkg/opacity"
	"github.com/teslashibe/go-gazereader/pkg/pacing"
)

// Renderer receives visual updates. It is only called from the tracker
// loop; each frame's calls end with Flush.
type Renderer interface {
	ApplyOpacity(weights []opacity.Weight)
	ResetOpacity(weights []opacity.Weight)
	MoveCursor(p vec.Vec2)
	ShowReading(r Reading)
	ShowTarget(t Target)
	Calibrated(ok bool)
	Looking(looking bool)
	Flush()
}

// Journal records reading progress across sessions.
type Journal interface {
	RecordCalibration(ctx context.Context, sessionID string, points int) error
	SaveCheckpoint(ctx context.Context, cp journal.Checkpoint) error
	LastCheckpoint(ctx context.Context, documentID string) (journal.Checkpoint, error)
}

// StatusListener is notified of status changes, at most once per
// StatusInterval.
type StatusListener interface {
	OnStatus(s Status)
}

// Reading is the page shown in paced-reading mode.
type Reading struct {
	Document string `json:"document"`
	pacing.Cursor
	Bionic    []bionic.Span `json:"bionic,omitempty"`
	LineGuide bool          `json:"lineGuide"`
}

// Target is a calibration target to display.
type Target struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Index int     `json:"index"`
	Count int     `json:"count"` // confirmations recorded at this target
}
