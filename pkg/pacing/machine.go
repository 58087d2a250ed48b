package pacing

import (
	"fmt"
	"slices"
	"time"
)

// Config holds the tunables of the word-advance machine.
type Config struct {
	WordsPerPage int
	CharsPerPage int

	// Accumulated horizontal motion, as a fraction of screen width,
	// needed to move one word forward or back.
	AdvanceThreshold float64
	RetreatThreshold float64

	// GuardDelay is how long the cursor may rest on the second-to-last
	// word before the page is turned anyway.
	GuardDelay time.Duration

	// LineStartX is the horizontal reference after a page or line turn.
	LineStartX float64
}

// DefaultConfig returns the recommended pacing configuration.
func DefaultConfig() Config {
	return Config{
		WordsPerPage:     DefaultWordsPerPage,
		CharsPerPage:     DefaultCharsPerPage,
		AdvanceThreshold: DefaultAdvanceThreshold,
		RetreatThreshold: DefaultRetreatThreshold,
		GuardDelay:       300 * time.Millisecond,
		LineStartX:       0,
	}
}

// Position identifies a word in the document.
type Position struct {
	Line int `json:"line"`
	Page int `json:"page"`
	Word int `json:"word"`
}

// Cursor is the reading cursor as shown to the reader.
type Cursor struct {
	Position
	Pages int      `json:"pages"`
	Lines int      `json:"lines"`
	Words []string `json:"words"`
	Done  bool     `json:"done"`
}

// Kind identifies a committed transition.
type Kind int

const (
	Advanced Kind = iota
	Retreated
	Jumped
	PageTurned
	LineChanged
	Finished
)

func (k Kind) String() string {
	switch k {
	case Advanced:
		return "advanced"
	case Retreated:
		return "retreated"
	case Jumped:
		return "jumped"
	case PageTurned:
		return "page_turned"
	case LineChanged:
		return "line_changed"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Transition describes one committed cursor move.
type Transition struct {
	Kind Kind
	From Position
	To   Position
}

// Machine turns relative horizontal gaze motion into word steps. The
// accumulator and the word index always change together within one call.
type Machine struct {
	cfg   Config
	lines [][]string
	pages [][]string // pages of the current line

	pos   Position
	acc   float64
	lastX float64
	width float64
	done  bool

	guard        Scheduler
	guardKey     Position
	guardPending bool
}

// NewMachine tokenizes lines (dropping empty ones) and places the cursor
// on the first word. guard may be nil, which disables the auto-advance
// safety net.
func NewMachine(cfg Config, lines []string, guard Scheduler) (*Machine, error) {
	if guard == nil {
		guard = nopScheduler{}
	}
	m := &Machine{cfg: cfg, guard: guard}
	for _, l := range lines {
		if words := Tokenize(l); len(words) > 0 {
			m.lines = append(m.lines, words)
		}
	}
	if len(m.lines) == 0 {
		return nil, ErrNoDocument
	}
	m.paginate()
	return m, nil
}

// Start begins reading on a screen of the given width, with the
// horizontal reference at the screen center.
func (m *Machine) Start(screenWidth float64) {
	m.width = screenWidth
	m.lastX = screenWidth / 2
	m.showPage()
}

// SetScreenWidth updates the width used to normalize motion. The first
// known width also centers the horizontal reference, as Start does.
func (m *Machine) SetScreenWidth(w float64) {
	if m.width <= 0 {
		m.lastX = w / 2
		m.acc = 0
	}
	m.width = w
}

// SetAdvanceThreshold changes the forward threshold.
func (m *Machine) SetAdvanceThreshold(t float64) {
	m.cfg.AdvanceThreshold = t
}

// SetPagination re-paginates with new caps, keeping the line and clamping
// the page. The cursor returns to the first word of the page.
func (m *Machine) SetPagination(wordsPerPage, charsPerPage int) {
	m.cfg.WordsPerPage, m.cfg.CharsPerPage = wordsPerPage, charsPerPage
	if m.done {
		return
	}
	m.paginate()
	if m.pos.Page >= len(m.pages) {
		m.pos.Page = len(m.pages) - 1
	}
	m.showPage()
}

// Observe feeds one smoothed horizontal gaze position.
func (m *Machine) Observe(x float64) (Transition, bool) {
	if m.done || m.width <= 0 {
		return Transition{}, false
	}
	delta := (x - m.lastX) / m.width
	m.lastX = x

	switch {
	case delta > 0:
		m.acc += delta
		if m.acc >= m.cfg.AdvanceThreshold {
			m.acc = 0
			return m.forward()
		}
	case delta < 0:
		m.acc += delta
		if m.acc < -m.cfg.RetreatThreshold {
			m.acc = 0
			if m.pos.Word == 0 {
				return Transition{}, false
			}
			return m.step(-1, Retreated)
		}
	}
	return Transition{}, false
}

// JumpTo moves the cursor to a word on the current page, discarding any
// accumulated motion.
func (m *Machine) JumpTo(word int) (Transition, error) {
	if m.done {
		return Transition{}, ErrFinished
	}
	if word < 0 || word >= len(m.page()) {
		return Transition{}, fmt.Errorf("%w: %d of %d", ErrWordOutOfRange, word, len(m.page()))
	}
	from := m.pos
	m.acc = 0
	m.pos.Word = word
	m.wordChanged()
	return Transition{Kind: Jumped, From: from, To: m.pos}, nil
}

// Next moves one word forward, turning the page at its end.
func (m *Machine) Next() (Transition, bool) {
	if m.done {
		return Transition{}, false
	}
	m.acc = 0
	return m.forward()
}

// Prev moves one word back within the page.
func (m *Machine) Prev() (Transition, bool) {
	if m.done || m.pos.Word == 0 {
		return Transition{}, false
	}
	m.acc = 0
	return m.step(-1, Retreated)
}

// NextLine turns to the next page, or the next line after the last page.
func (m *Machine) NextLine() (Transition, bool) {
	if m.done {
		return Transition{}, false
	}
	return m.turnForward(m.pos)
}

// PrevLine turns to the previous page, or to the last page of the
// previous line. From the end-of-document state it returns to the last page.
func (m *Machine) PrevLine() (Transition, bool) {
	from := m.pos
	switch {
	case m.done:
		m.done = false
		m.pos.Line = len(m.lines) - 1
		m.paginate()
		m.pos.Page = len(m.pages) - 1
		m.showPage()
		return Transition{Kind: LineChanged, From: from, To: m.pos}, true
	case m.pos.Page > 0:
		m.pos.Page--
		m.showPage()
		return Transition{Kind: PageTurned, From: from, To: m.pos}, true
	case m.pos.Line > 0:
		m.pos.Line--
		m.paginate()
		m.pos.Page = len(m.pages) - 1
		m.showPage()
		return Transition{Kind: LineChanged, From: from, To: m.pos}, true
	}
	return Transition{}, false
}

// Seek moves to the first word of the given line and page.
func (m *Machine) Seek(line, page int) error {
	if line < 0 || line >= len(m.lines) {
		return fmt.Errorf("%w: line %d of %d", ErrPositionOutOfRange, line, len(m.lines))
	}
	pages := Paginate(m.lines[line], m.cfg.WordsPerPage, m.cfg.CharsPerPage)
	if page < 0 || page >= len(pages) {
		return fmt.Errorf("%w: page %d of %d", ErrPositionOutOfRange, page, len(pages))
	}
	m.done = false
	m.pos = Position{Line: line, Page: page}
	m.pages = pages
	m.lastX = m.cfg.LineStartX
	m.showPage()
	return nil
}

// GuardFired handles an expired auto-advance guard. The page is turned
// only if the cursor has not moved since the guard was armed.
func (m *Machine) GuardFired(key Position) (Transition, bool) {
	if !m.guardPending || m.done || key != m.guardKey || key != m.pos {
		return Transition{}, false
	}
	m.guardPending = false
	return m.turnForward(m.pos)
}

// Stop cancels the pending guard.
func (m *Machine) Stop() {
	m.cancelGuard()
}

// Cursor returns the reading cursor.
func (m *Machine) Cursor() Cursor {
	c := Cursor{Position: m.pos, Lines: len(m.lines), Done: m.done}
	if !m.done {
		c.Pages = len(m.pages)
		c.Words = slices.Clone(m.page())
	}
	return c
}

// Position returns the cursor position.
func (m *Machine) Position() Position { return m.pos }

// Accumulator returns the accumulated normalized motion.
func (m *Machine) Accumulator() float64 { return m.acc }

// Done reports whether the end of the document was reached.
func (m *Machine) Done() bool { return m.done }

func (m *Machine) page() []string {
	return m.pages[m.pos.Page]
}

func (m *Machine) paginate() {
	m.pages = Paginate(m.lines[m.pos.Line], m.cfg.WordsPerPage, m.cfg.CharsPerPage)
}

func (m *Machine) forward() (Transition, bool) {
	if m.pos.Word < len(m.page())-1 {
		return m.step(1, Advanced)
	}
	return m.turnForward(m.pos)
}

func (m *Machine) step(dir int, kind Kind) (Transition, bool) {
	from := m.pos
	m.pos.Word += dir
	m.wordChanged()
	return Transition{Kind: kind, From: from, To: m.pos}, true
}

func (m *Machine) turnForward(from Position) (Transition, bool) {
	switch {
	case m.pos.Page < len(m.pages)-1:
		m.pos.Page++
		m.lastX = m.cfg.LineStartX
		m.showPage()
		return Transition{Kind: PageTurned, From: from, To: m.pos}, true
	case m.pos.Line < len(m.lines)-1:
		m.pos.Line++
		m.pos.Page = 0
		m.paginate()
		m.lastX = m.cfg.LineStartX
		m.showPage()
		return Transition{Kind: LineChanged, From: from, To: m.pos}, true
	}
	m.done = true
	m.acc = 0
	m.cancelGuard()
	return Transition{Kind: Finished, From: from, To: m.pos}, true
}

// showPage puts the cursor on the first word of the current page.
func (m *Machine) showPage() {
	m.pos.Word = 0
	m.acc = 0
	m.wordChanged()
}

// wordChanged re-arms the guard for the new word index.
func (m *Machine) wordChanged() {
	m.cancelGuard()
	if m.pos.Word != len(m.page())-2 || !m.hasNextPage() {
		return
	}
	m.guardKey, m.guardPending = m.pos, true
	m.guard.Schedule(m.pos, m.cfg.GuardDelay)
}

func (m *Machine) cancelGuard() {
	if m.guardPending {
		m.guard.Cancel()
		m.guardPending = false
	}
}

func (m *Machine) hasNextPage() bool {
	return m.pos.Page < len(m.pages)-1 || m.pos.Line < len(m.lines)-1
}
