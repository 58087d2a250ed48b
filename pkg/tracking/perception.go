package tracking

import (
	"errors"
	"time"

	"seehuhn.de/go/geom/vec"

	"github.com/teslashibe/go-gazereader/pkg/gaze"
)

// Perception turns raw oracle samples into the smoothed gaze point and
// keeps track of whether the reader is looking at the screen.
type Perception struct {
	smoother *gaze.Smoother
	viewport gaze.Viewport
	margin   float64

	point    vec.Vec2
	hasPoint bool

	lastSample time.Time
	accepted   uint64
	dropped    uint64
}

// NewPerception creates a perception stage for the given configuration.
func NewPerception(config Config) *Perception {
	return &Perception{
		smoother: gaze.NewSmoother(config.HistorySize),
		margin:   config.OutOfRangeMargin,
	}
}

// SetViewport updates the area samples are checked against.
func (p *Perception) SetViewport(v gaze.Viewport) {
	p.viewport = v
}

// Accept validates a sample received at now and folds it into the
// smoothed point. Rejected samples leave the smoother untouched.
func (p *Perception) Accept(s gaze.Sample, now time.Time) (vec.Vec2, error) {
	if err := s.Validate(p.viewport, p.margin); err != nil {
		p.dropped++
		return vec.Vec2{}, err
	}
	p.point = p.smoother.Smooth(s.Vec())
	p.hasPoint = true
	p.lastSample = now
	p.accepted++
	return p.point, nil
}

// Point returns the latest smoothed point.
func (p *Perception) Point() (vec.Vec2, bool) {
	return p.point, p.hasPoint
}

// Looking reports whether a sample arrived within timeout of now.
func (p *Perception) Looking(now time.Time, timeout time.Duration) bool {
	return p.hasPoint && now.Sub(p.lastSample) < timeout
}

// Reset discards the sample history.
func (p *Perception) Reset() {
	p.smoother.Reset()
	p.point, p.hasPoint = vec.Vec2{}, false
}

// Counts returns the number of accepted and dropped samples.
func (p *Perception) Counts() (accepted, dropped uint64) {
	return p.accepted, p.dropped
}

// isRange reports whether err is a range rejection rather than a malformed sample.
func isRange(err error) bool {
	return errors.Is(err, gaze.ErrOutOfRange)
}
