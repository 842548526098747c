package ui

import (
	"strings"
	"sync"
)

// ConsoleBuffer collects server console output for the dashboard. It keeps
// the last max lines and signals Updated after each write without blocking
// the writer.
type ConsoleBuffer struct {
	mu      sync.Mutex
	lines   []string
	partial string
	max     int
	updated chan struct{}
}

func NewConsoleBuffer(max int) *ConsoleBuffer {
	if max <= 0 {
		max = 500
	}
	return &ConsoleBuffer{max: max, updated: make(chan struct{}, 1)}
}

func (b *ConsoleBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	text := b.partial + string(p)
	parts := strings.Split(text, "\n")
	b.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		b.appendLocked(strings.TrimRight(line, "\r"))
	}
	b.mu.Unlock()

	b.signal()
	return len(p), nil
}

// Append adds a complete line, e.g. an echoed command.
func (b *ConsoleBuffer) Append(line string) {
	b.mu.Lock()
	b.appendLocked(line)
	b.mu.Unlock()
	b.signal()
}

func (b *ConsoleBuffer) appendLocked(line string) {
	b.lines = append(b.lines, line)
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append(b.lines[:0:0], b.lines[over:]...)
	}
}

func (b *ConsoleBuffer) signal() {
	select {
	case b.updated <- struct{}{}:
	default:
	}
}

// Lines returns a copy of the buffered lines, including an unterminated
// trailing line.
func (b *ConsoleBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines), len(b.lines)+1)
	copy(out, b.lines)
	if b.partial != "" {
		out = append(out, b.partial)
	}
	return out
}

func (b *ConsoleBuffer) Updated() <-chan struct{} {
	return b.updated
}
