// Package screen implements a fixed-size character-grid terminal display
// with cursor tracking and line-input capture. It is independent of the
// language toolchain; the interpreter drives it only through its print,
// println, input and clear methods.
package screen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"
)

// Default grid dimensions of the retro display.
const (
	DefaultRows = 24
	DefaultCols = 40
)

// cursorGlyph is appended after the in-progress input buffer when the
// active row is rendered in input mode.
const cursorGlyph = '█' // full block

// ErrInputPending is returned when a second input request arrives while one
// is still unresolved; exactly one input may be pending at a time.
var ErrInputPending = errors.New("screen: input already pending")

// Screen is the terminal state machine. It has two modes: display and
// line-input. Keystrokes only have an effect in line-input mode. All
// methods are safe for concurrent use; keystrokes typically arrive from a
// network goroutine while the interpreter goroutine blocks in Input.
type Screen struct {
	mu sync.Mutex

	rows, cols int
	cells      [][]rune
	curRow     int
	curCol     int

	inputMode bool
	inputBuf  []rune
	pending   chan string

	// onUpdate is invoked after every visible mutation so the host can
	// redraw. Called without the lock held.
	onUpdate func()
}

// New creates a blank screen of the given dimensions. Non-positive
// dimensions fall back to the defaults.
func New(rows, cols int) *Screen {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	s := &Screen{rows: rows, cols: cols}
	s.cells = blankGrid(rows, cols)
	return s
}

func blankGrid(rows, cols int) [][]rune {
	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = make([]rune, cols)
		for c := range grid[r] {
			grid[r][c] = ' '
		}
	}
	return grid
}

// SetOnUpdate registers the redraw callback.
func (s *Screen) SetOnUpdate(fn func()) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

func (s *Screen) notify() {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Size returns the grid dimensions.
func (s *Screen) Size() (rows, cols int) {
	return s.rows, s.cols
}

// Print writes text at the cursor, wrapping at the last column and
// scrolling when the cursor would leave the bottom row.
func (s *Screen) Print(text string) {
	s.mu.Lock()
	s.printLocked(text)
	s.mu.Unlock()
	s.notify()
}

// PrintLine writes text followed by a newline.
func (s *Screen) PrintLine(text string) {
	s.mu.Lock()
	s.printLocked(text)
	s.newlineLocked()
	s.mu.Unlock()
	s.notify()
}

// Clear blanks the grid and homes the cursor.
func (s *Screen) Clear() {
	s.mu.Lock()
	s.cells = blankGrid(s.rows, s.cols)
	s.curRow = 0
	s.curCol = 0
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) printLocked(text string) {
	for _, r := range text {
		if r == '\n' {
			s.newlineLocked()
			continue
		}
		if s.curCol >= s.cols {
			s.newlineLocked()
		}
		s.cells[s.curRow][s.curCol] = r
		s.curCol++
	}
}

func (s *Screen) newlineLocked() {
	s.curCol = 0
	if s.curRow < s.rows-1 {
		s.curRow++
		return
	}
	s.scrollLocked()
}

// scrollLocked drops the top row and blanks the bottom one; the cursor
// stays on the last row.
func (s *Screen) scrollLocked() {
	copy(s.cells, s.cells[1:])
	last := make([]rune, s.cols)
	for c := range last {
		last[c] = ' '
	}
	s.cells[s.rows-1] = last
	s.curRow = s.rows - 1
}

// Input prints the prompt, switches to line-input mode and suspends until a
// completed line of keystrokes resolves it. Exactly one input may be
// pending at a time; it is resolved exactly once by the next Enter.
func (s *Screen) Input(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	if s.pending != nil {
		s.mu.Unlock()
		return "", ErrInputPending
	}
	s.printLocked(prompt)
	s.inputMode = true
	s.inputBuf = s.inputBuf[:0]
	ch := make(chan string, 1)
	s.pending = ch
	s.mu.Unlock()
	s.notify()

	select {
	case line := <-ch:
		return line, nil
	case <-ctx.Done():
		s.mu.Lock()
		s.pending = nil
		s.inputMode = false
		s.inputBuf = s.inputBuf[:0]
		s.mu.Unlock()
		return "", ctx.Err()
	}
}

// Key feeds one keystroke into the screen. Outside line-input mode
// keystrokes are dropped. Letters are uppercased, Backspace deletes one
// character and Enter commits the accumulated line, resolving the pending
// input.
func (s *Screen) Key(key string) {
	s.mu.Lock()
	if !s.inputMode {
		s.mu.Unlock()
		return
	}

	switch key {
	case "Enter":
		line := string(s.inputBuf)
		s.printLocked(line)
		s.newlineLocked()
		s.inputBuf = s.inputBuf[:0]
		s.inputMode = false
		pending := s.pending
		s.pending = nil
		s.mu.Unlock()
		if pending != nil {
			pending <- line
		}
		s.notify()
		return

	case "Backspace":
		if len(s.inputBuf) > 0 {
			s.inputBuf = s.inputBuf[:len(s.inputBuf)-1]
		}

	default:
		runes := []rune(key)
		if len(runes) == 1 && unicode.IsPrint(runes[0]) {
			s.inputBuf = append(s.inputBuf, unicode.ToUpper(runes[0]))
		}
	}

	s.mu.Unlock()
	s.notify()
}

// InputMode reports whether the screen is accumulating a line of input.
func (s *Screen) InputMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputMode
}

// InputLine returns the in-progress input buffer.
func (s *Screen) InputLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.inputBuf)
}

// Cursor returns the cursor position.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curRow, s.curCol
}

// Rows returns the committed grid contents, one string per row.
func (s *Screen) Rows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsLocked(false)
}

// Snapshot returns the rows to display: the committed grid, with the active
// row in input mode additionally showing the in-progress buffer followed by
// a cursor glyph.
func (s *Screen) Snapshot() (rows []string, curRow, curCol int, inputMode bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsLocked(true), s.curRow, s.curCol, s.inputMode
}

func (s *Screen) rowsLocked(overlayInput bool) []string {
	rows := make([]string, s.rows)
	for r := range s.cells {
		rows[r] = string(s.cells[r])
	}

	if overlayInput && s.inputMode {
		active := make([]rune, 0, s.cols)
		active = append(active, s.cells[s.curRow][:s.curCol]...)
		active = append(active, s.inputBuf...)
		active = append(active, cursorGlyph)
		if len(active) > s.cols {
			active = active[len(active)-s.cols:]
		}
		rows[s.curRow] = padRight(string(active), s.cols)
	}

	return rows
}

func padRight(text string, width int) string {
	n := len([]rune(text))
	if n >= width {
		return text
	}
	return text + strings.Repeat(" ", width-n)
}
