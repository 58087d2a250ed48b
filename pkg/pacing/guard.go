package pacing

import (
	"sync"
	"time"
)

// Scheduler runs the auto-advance guard. Schedule supersedes any pending
// task; Cancel drops it.
type Scheduler interface {
	Schedule(key Position, after time.Duration)
	Cancel()
}

// Guard is a cancel-on-supersede timer. When a scheduled task fires, its
// key is delivered on C so the owning loop can handle it on its own
// goroutine; the machine ignores keys that no longer match its cursor.
type Guard struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
	c     chan Position
}

// NewGuard creates an idle guard.
func NewGuard() *Guard {
	return &Guard{c: make(chan Position, 1)}
}

// C delivers the keys of fired tasks.
func (g *Guard) C() <-chan Position {
	return g.c
}

// Schedule arms the guard for key, replacing any pending task.
func (g *Guard) Schedule(key Position, after time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.drainLocked()
	gen := g.gen
	g.timer = time.AfterFunc(after, func() {
		// Delivery holds the lock: no fire lands after Cancel or Schedule returns.
		g.mu.Lock()
		defer g.mu.Unlock()
		if gen != g.gen {
			return
		}
		select {
		case g.c <- key:
		default:
		}
	})
}

// Cancel drops the pending task, including one that already fired but
// has not been received.
func (g *Guard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
	g.drainLocked()
}

func (g *Guard) drainLocked() {
	select {
	case <-g.c:
	default:
	}
}

func (g *Guard) stopLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
}

type nopScheduler struct{}

func (nopScheduler) Schedule(Position, time.Duration) {}
func (nopScheduler) Cancel()                          {}
