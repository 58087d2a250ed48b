package gaze

import "seehuhn.de/go/geom/vec"

// Smoother keeps the last K raw points and averages them with a linear
// ramp of weights: oldest=1, newest=len. A single outlier never causes a
// visible jump, while real movement shows within a few samples.
type Smoother struct {
	buf  []vec.Vec2
	head int // index of the oldest point
	n    int
}

// NewSmoother creates a smoother holding at most capacity points.
// Small capacities favor responsiveness, large ones stability.
func NewSmoother(capacity int) *Smoother {
	if capacity < 1 {
		capacity = 1
	}
	return &Smoother{buf: make([]vec.Vec2, capacity)}
}

// Smooth pushes p, evicting the oldest point when full, and returns the
// weighted average of the buffer.
func (s *Smoother) Smooth(p vec.Vec2) vec.Vec2 {
	if s.n < len(s.buf) {
		s.buf[(s.head+s.n)%len(s.buf)] = p
		s.n++
	} else {
		s.buf[s.head] = p
		s.head = (s.head + 1) % len(s.buf)
	}
	pt, _ := s.Point()
	return pt
}

// Point returns the current smoothed point, or false before the first sample.
func (s *Smoother) Point() (vec.Vec2, bool) {
	if s.n == 0 {
		return vec.Vec2{}, false
	}
	var x, y, total float64
	for i := 0; i < s.n; i++ {
		p := s.buf[(s.head+i)%len(s.buf)]
		w := float64(i + 1)
		x += p.X * w
		y += p.Y * w
		total += w
	}
	return vec.Vec2{X: x / total, Y: y / total}, true
}

// Len returns the number of buffered points.
func (s *Smoother) Len() int { return s.n }

// Cap returns the buffer capacity K.
func (s *Smoother) Cap() int { return len(s.buf) }

// Reset drops all buffered points.
func (s *Smoother) Reset() {
	s.head, s.n = 0, 0
}
