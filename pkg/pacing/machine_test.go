package pacing

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockScheduler records guard scheduling instead of running timers.
type mockScheduler struct {
	scheduled []Position
	cancels   int
	pending   bool
	last      Position
}

func (m *mockScheduler) Schedule(key Position, after time.Duration) {
	m.scheduled = append(m.scheduled, key)
	m.pending, m.last = true, key
}

func (m *mockScheduler) Cancel() {
	m.cancels++
	m.pending = false
}

const width = 1024.0

func newTestMachine(t *testing.T, cfg Config, lines ...string) (*Machine, *mockScheduler) {
	t.Helper()
	s := &mockScheduler{}
	m, err := NewMachine(cfg, lines, s)
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}
	m.Start(width)
	return m, s
}

func TestMachine_ExactThresholdCommitsOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdvanceThreshold = 0.125 // four steps of 32px on a 1024px screen
	m, _ := newTestMachine(t, cfg, "one two three four five six")

	x := width / 2
	commits := 0
	for i := 1; i <= 4; i++ {
		x += 32
		tr, ok := m.Observe(x)
		if ok {
			commits++
			if i != 4 {
				t.Errorf("Commit at step %d, expected at step 4", i)
			}
			if tr.Kind != Advanced || tr.To.Word != 1 {
				t.Errorf("Expected advance to word 1, got %+v", tr)
			}
			if m.Accumulator() != 0 {
				t.Errorf("Expected accumulator reset to 0, got %v", m.Accumulator())
			}
		}
	}
	if commits != 1 {
		t.Errorf("Expected exactly one commit, got %d", commits)
	}
}

func TestMachine_WidthKnownAfterStart(t *testing.T) {
	s := &mockScheduler{}
	m, err := NewMachine(DefaultConfig(), []string{"one two three four"}, s)
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}
	m.Start(0)
	if _, ok := m.Observe(300); ok {
		t.Error("Expected no transition without a screen width")
	}

	m.SetScreenWidth(1000)
	if tr, ok := m.Observe(500); ok {
		t.Errorf("Expected centered gaze to be no motion, got %v", tr.Kind)
	}
	if m.Position().Word != 0 {
		t.Errorf("Expected word 0, got %d", m.Position().Word)
	}

	// A resize keeps the reference where the gaze left it.
	m.SetScreenWidth(800)
	if _, ok := m.Observe(500 + 0.09*800); !ok || m.Position().Word != 1 {
		t.Errorf("Expected advance to word 1, got %+v", m.Position())
	}
}

func TestMachine_RetreatIsHarderThanAdvance(t *testing.T) {
	m, _ := newTestMachine(t, DefaultConfig(), "alpha beta gamma delta epsilon")
	m.Next()
	m.Next() // word 2

	// 0.1 of screen leftward: enough to advance, not enough to retreat.
	x := width / 2
	if _, ok := m.Observe(x - 0.1*width); ok {
		t.Error("Expected no retreat under the retreat threshold")
	}
	if m.Position().Word != 2 {
		t.Errorf("Expected word 2, got %d", m.Position().Word)
	}

	// A further 0.06 crosses -0.15.
	tr, ok := m.Observe(x - 0.16*width)
	if !ok || tr.Kind != Retreated || tr.To.Word != 1 {
		t.Errorf("Expected retreat to word 1, got %+v ok=%v", tr, ok)
	}
	if m.Accumulator() != 0 {
		t.Errorf("Expected accumulator reset, got %v", m.Accumulator())
	}
}

func TestMachine_RetreatAtFirstWordIsNoop(t *testing.T) {
	m, _ := newTestMachine(t, DefaultConfig(), "alpha beta gamma")
	if _, ok := m.Observe(0); ok {
		t.Error("Expected no transition at the first word")
	}
	if m.Position().Word != 0 || m.Accumulator() != 0 {
		t.Errorf("Expected word 0 and reset accumulator, got %d / %v", m.Position().Word, m.Accumulator())
	}
}

func TestMachine_PageAndLineTurns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordsPerPage = 2
	m, _ := newTestMachine(t, cfg, "a b c", "d e")

	want := []struct {
		kind Kind
		pos  Position
	}{
		{Advanced, Position{0, 0, 1}},
		{PageTurned, Position{0, 1, 0}},
		{LineChanged, Position{1, 0, 0}},
		{Advanced, Position{1, 0, 1}},
		{Finished, Position{1, 0, 1}},
	}
	for i, w := range want {
		tr, ok := m.Next()
		if !ok || tr.Kind != w.kind || tr.To != w.pos {
			t.Fatalf("step %d: expected %v at %+v, got %v at %+v (ok=%v)", i, w.kind, w.pos, tr.Kind, tr.To, ok)
		}
	}
	if !m.Done() || !m.Cursor().Done {
		t.Error("Expected end of document")
	}
	if _, ok := m.Next(); ok {
		t.Error("Expected no advance after the end")
	}
	if _, ok := m.Observe(width); ok {
		t.Error("Expected gaze ignored after the end")
	}
	if _, err := m.JumpTo(0); !errors.Is(err, ErrFinished) {
		t.Errorf("Expected ErrFinished, got %v", err)
	}
}

func TestMachine_TurnResetsHorizontalReference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordsPerPage = 1
	m, _ := newTestMachine(t, cfg, "a b")

	// Large sweep right turns the page and resets the reference to 0.
	if tr, ok := m.Observe(width); !ok || tr.Kind != PageTurned {
		t.Fatalf("Expected page turn, got %+v ok=%v", tr, ok)
	}
	// Moving from the line start to 0.05 is measured from 0, not from the
	// previous sample at the screen edge.
	if _, ok := m.Observe(0.05 * width); ok {
		t.Error("Expected no commit below threshold")
	}
	if got := m.Accumulator(); got < 0.049 || got > 0.051 {
		t.Errorf("Expected accumulator ~0.05 measured from line start, got %v", got)
	}
}

func TestMachine_JumpResetsAccumulator(t *testing.T) {
	m, _ := newTestMachine(t, DefaultConfig(), "a b c d e")
	m.Observe(width/2 + 40)
	if m.Accumulator() == 0 {
		t.Fatal("Expected non-zero accumulator")
	}
	tr, err := m.JumpTo(3)
	if err != nil || tr.To.Word != 3 {
		t.Fatalf("JumpTo(3) = %+v, %v", tr, err)
	}
	if m.Accumulator() != 0 {
		t.Errorf("Expected accumulator reset by jump, got %v", m.Accumulator())
	}
	if _, err := m.JumpTo(9); !errors.Is(err, ErrWordOutOfRange) {
		t.Errorf("Expected ErrWordOutOfRange, got %v", err)
	}
}

func TestMachine_GuardOnSecondToLastWord(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordsPerPage = 3
	m, s := newTestMachine(t, cfg, "a b c d")

	m.Next() // word 1 of [a b c]
	if !s.pending || s.last != (Position{0, 0, 1}) {
		t.Fatalf("Expected guard armed at word 1, got pending=%v last=%+v", s.pending, s.last)
	}

	tr, ok := m.GuardFired(Position{0, 0, 1})
	if !ok || tr.Kind != PageTurned || tr.To != (Position{0, 1, 0}) {
		t.Errorf("Expected guard to turn the page, got %+v ok=%v", tr, ok)
	}
}

func TestMachine_GuardCancelledByMove(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordsPerPage = 3
	m, s := newTestMachine(t, cfg, "a b c d")

	m.Next()
	key := s.last
	m.Next() // moved on to the last word
	if s.pending {
		t.Error("Expected guard cancelled by word change")
	}
	if _, ok := m.GuardFired(key); ok {
		t.Error("Expected stale guard to be ignored")
	}
	if m.Position() != (Position{0, 0, 2}) {
		t.Errorf("Expected cursor unchanged at word 2, got %+v", m.Position())
	}
}

func TestMachine_NoGuardOnLastPage(t *testing.T) {
	m, s := newTestMachine(t, DefaultConfig(), "a b c")
	m.Next() // second-to-last of the only page of the only line
	if len(s.scheduled) != 0 {
		t.Errorf("Expected no guard with nothing to advance to, got %v", s.scheduled)
	}
}

func TestMachine_PrevLineLandsOnLastPage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WordsPerPage = 2
	m, _ := newTestMachine(t, cfg, "a b c d e", "f")

	if err := m.Seek(1, 0); err != nil {
		t.Fatal(err)
	}
	tr, ok := m.PrevLine()
	if !ok || tr.To != (Position{0, 2, 0}) {
		t.Errorf("Expected line 0 page 2, got %+v ok=%v", tr.To, ok)
	}
	tr, _ = m.PrevLine()
	if tr.To != (Position{0, 1, 0}) {
		t.Errorf("Expected line 0 page 1, got %+v", tr.To)
	}
}

func TestMachine_PrevLineFromEnd(t *testing.T) {
	m, _ := newTestMachine(t, DefaultConfig(), "a")
	m.Next()
	if !m.Done() {
		t.Fatal("Expected done")
	}
	if _, ok := m.PrevLine(); !ok || m.Done() {
		t.Error("Expected PrevLine to leave the end-of-document state")
	}
}

func TestMachine_SeekOutOfRange(t *testing.T) {
	m, _ := newTestMachine(t, DefaultConfig(), "a b")
	if err := m.Seek(3, 0); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("Expected ErrPositionOutOfRange, got %v", err)
	}
	if err := m.Seek(0, 4); !errors.Is(err, ErrPositionOutOfRange) {
		t.Errorf("Expected ErrPositionOutOfRange, got %v", err)
	}
}

func TestNewMachine_EmptyDocument(t *testing.T) {
	if _, err := NewMachine(DefaultConfig(), []string{"", "   "}, nil); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument, got %v", err)
	}
}

func TestMachine_SetPaginationKeepsLine(t *testing.T) {
	m, _ := newTestMachine(t, DefaultConfig(), "a b c d e f g", "h")
	m.NextLine() // line 1
	m.PrevLine() // back to line 0, page 0
	m.SetPagination(2, DefaultCharsPerPage)
	c := m.Cursor()
	if c.Line != 0 || c.Pages != 4 || len(c.Words) != 2 {
		t.Errorf("Expected line 0 with 4 pages of 2, got %+v", c)
	}
}

func TestPaginate(t *testing.T) {
	words := make([]string, 10)
	for i := range words {
		words[i] = string(rune('a' + i))
	}

	tests := []struct {
		maxWords int
		maxChars int
		want     []int
	}{
		{10, 66, []int{10}},
		{3, 66, []int{3, 3, 3, 1}},
		{10, 5, []int{3, 3, 3, 1}}, // "a b c" is 5 chars
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_words_%d_chars", tt.maxWords, tt.maxChars), func(t *testing.T) {
			pages := Paginate(words, tt.maxWords, tt.maxChars)
			if len(pages) != len(tt.want) {
				t.Fatalf("Expected %d pages, got %d: %v", len(tt.want), len(pages), pages)
			}
			for i, p := range pages {
				if len(p) != tt.want[i] {
					t.Errorf("page %d: expected %d words, got %d", i, tt.want[i], len(p))
				}
			}
		})
	}
}

func TestPaginate_LongWordAndEmpty(t *testing.T) {
	long := "supercalifragilisticexpialidocious-supercalifragilisticexpialidocious"
	pages := Paginate([]string{"a", long, "b"}, 10, 66)
	if len(pages) != 3 || pages[1][0] != long {
		t.Errorf("Expected the long word alone on page 2, got %v", pages)
	}
	if pages := Paginate(nil, 10, 66); len(pages) != 1 || len(pages[0]) != 0 {
		t.Errorf("Expected a single empty page, got %v", pages)
	}
}

func TestThresholdForSensitivity(t *testing.T) {
	if got := ThresholdForSensitivity(1); got != 0.15 {
		t.Errorf("Expected 0.15 at level 1, got %v", got)
	}
	if got := ThresholdForSensitivity(10); got < 0.0299 || got > 0.0301 {
		t.Errorf("Expected 0.03 at level 10, got %v", got)
	}
	prev := ThresholdForSensitivity(1)
	for level := 2; level <= 10; level++ {
		cur := ThresholdForSensitivity(level)
		if cur >= prev {
			t.Errorf("Expected threshold to fall with sensitivity, level %d: %v >= %v", level, cur, prev)
		}
		prev = cur
	}
	if ThresholdForSensitivity(42) != ThresholdForSensitivity(10) {
		t.Error("Expected levels above 10 clamped")
	}
	if SensitivityLabel(5) != "Medium" {
		t.Errorf("Expected Medium, got %q", SensitivityLabel(5))
	}
}

func TestGuard_SupersedeAndFire(t *testing.T) {
	g := NewGuard()
	g.Schedule(Position{Word: 1}, time.Hour)
	g.Schedule(Position{Word: 2}, 5*time.Millisecond)

	select {
	case key := <-g.C():
		if key.Word != 2 {
			t.Errorf("Expected the superseding key, got %+v", key)
		}
	case <-time.After(time.Second):
		t.Fatal("Guard never fired")
	}
}

func TestGuard_RescheduleDropsFiredKey(t *testing.T) {
	g := NewGuard()
	key := Position{Word: 3}
	g.Schedule(key, time.Millisecond)
	time.Sleep(20 * time.Millisecond) // fired, not yet received

	g.Cancel()
	g.Schedule(key, time.Hour)
	select {
	case got := <-g.C():
		t.Errorf("Expected the earlier fire to be dropped, got %+v", got)
	case <-time.After(30 * time.Millisecond):
	}
	g.Cancel()
}

func TestGuard_Cancel(t *testing.T) {
	g := NewGuard()
	g.Schedule(Position{Word: 1}, 5*time.Millisecond)
	g.Cancel()

	select {
	case key := <-g.C():
		t.Errorf("Expected no fire after Cancel, got %+v", key)
	case <-time.After(30 * time.Millisecond):
	}
}
