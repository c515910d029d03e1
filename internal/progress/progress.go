// Package progress renders the light fixtures and a live status line to a
// terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"lightsync/internal/collector"
	"lightsync/internal/sim"
)

// StateSource provides the latest published clock state.
type StateSource interface {
	Snapshot() sim.Snapshot
}

type Progress struct {
	source   StateSource
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopped  atomic.Bool
	quiet    bool
	output   io.Writer
	mu       sync.Mutex
}

func NewProgress(source StateSource, quiet bool) *Progress {
	return &Progress{
		source:   source,
		interval: time.Second,
		quiet:    quiet,
		output:   os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// SetInterval changes how often the status line is redrawn. It has no
// effect once Start has been called.
func (p *Progress) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printStatus()
		}
	}
}

func (p *Progress) printStatus() {
	line := StatusLine(p.source.Snapshot())
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K%s", line)
	p.mu.Unlock()
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K")
	p.mu.Unlock()
}

func (p *Progress) Print(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\r\033[K"+format+"\n", args...)
	p.mu.Unlock()
}

// PrintFixtures draws the current fixtures below the status line.
func (p *Progress) PrintFixtures() {
	if p.quiet {
		return
	}
	s := p.source.Snapshot()
	p.mu.Lock()
	fmt.Fprint(p.output, "\r\033[K")
	RenderFixtures(p.output, s)
	p.mu.Unlock()
}

// StatusLine renders a one-line summary of s.
func StatusLine(s sim.Snapshot) string {
	a, b := s.ColorA.String(), s.ColorB.String()
	if s.Illegal {
		a, b = "?", "?"
	}
	line := fmt.Sprintf("[%s] A=%-6s B=%-6s | transitions: %d | latency: %s",
		collector.FormatSimTime(s.SimulatedSeconds), a, b,
		s.Transitions, collector.FormatSeconds(s.TotalLatencySeconds))
	if s.Illegal {
		line += " | illegal light state"
	}
	if s.Complete {
		line += " | complete"
	}
	return line
}
