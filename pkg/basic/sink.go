package basic

import (
	"context"
	"strings"
	"sync"
)

// Sink is the interpreter's entire view of the outside world: character
// output, line output, a suspending line read, and a clear-screen request.
// The interpreter never touches a screen buffer directly; swapping the sink
// is how a host captures or redirects output without touching the
// interpreter.
type Sink interface {
	Print(text string)
	PrintLine(text string)
	Input(ctx context.Context, prompt string) (string, error)
	Clear()
}

// NopSink discards all output and resolves every input request with an
// empty line.
type NopSink struct{}

func (NopSink) Print(text string)     {}
func (NopSink) PrintLine(text string) {}
func (NopSink) Clear()                {}

func (NopSink) Input(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

// CaptureSink wraps another sink, recording everything printed through it
// while forwarding unchanged. Hosts chain one in front of the live sink to
// validate program output, then detach it again.
type CaptureSink struct {
	next Sink

	mu  sync.Mutex
	buf strings.Builder
}

// NewCaptureSink returns a CaptureSink forwarding to next. A nil next
// discards the forwarded output.
func NewCaptureSink(next Sink) *CaptureSink {
	if next == nil {
		next = NopSink{}
	}
	return &CaptureSink{next: next}
}

func (c *CaptureSink) Print(text string) {
	c.mu.Lock()
	c.buf.WriteString(text)
	c.mu.Unlock()
	c.next.Print(text)
}

func (c *CaptureSink) PrintLine(text string) {
	c.mu.Lock()
	c.buf.WriteString(text)
	c.buf.WriteByte('\n')
	c.mu.Unlock()
	c.next.PrintLine(text)
}

func (c *CaptureSink) Input(ctx context.Context, prompt string) (string, error) {
	return c.next.Input(ctx, prompt)
}

func (c *CaptureSink) Clear() {
	c.next.Clear()
}

// Captured returns everything printed through the sink so far.
func (c *CaptureSink) Captured() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Lines returns the captured output split into lines, without a trailing
// empty entry.
func (c *CaptureSink) Lines() []string {
	text := c.Captured()
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Reset clears the captured output.
func (c *CaptureSink) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}

// ProgramStore persists saved programs for SAVE and LOAD, keyed by session
// and program name. Load returns ErrProgramNotFound for an unknown name.
type ProgramStore interface {
	Save(session, name, content string) error
	Load(session, name string) (string, error)
}
