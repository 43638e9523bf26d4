// Package alert delivers one-shot user-facing notifications. Every remote
// failure in the client is reported exactly once through a Notifier at the
// call site that issued the request; nothing propagates unhandled.
package alert

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type Notifier interface {
	Notify(format string, args ...any)
}

// Console writes notifications to a writer, one per line.
type Console struct {
	W io.Writer
}

func NewConsole() *Console {
	return &Console{W: os.Stderr}
}

func (c *Console) Notify(format string, args ...any) {
	w := c.W
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Recorder captures notifications for tests.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Notify(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}
