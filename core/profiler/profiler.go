// Package profiler attaches to a live process with ptrace and aggregates
// per-syscall counts and latencies.
package profiler

import (
	"errors"
	"sync"
	"time"

	"github.com/qsh-sh/qsh/core/debug"
)

// MaxSyscalls bounds the per-syscall accounting table.
const MaxSyscalls = 512

// Profiler errors.
var (
	ErrAlreadyProfiling = errors.New("already profiling")
	ErrNotProfiling     = errors.New("not profiling")
	ErrSyscallFailed    = errors.New("profiling not supported")
	ErrInvalidArg       = errors.New("invalid argument")
)

// SyscallStat accumulates one syscall's counters.
type SyscallStat struct {
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Stats is a point-in-time copy of the profiler's accounting.
type Stats struct {
	Attached   bool
	Pid        int
	Start, End time.Time
	Syscalls   [MaxSyscalls]SyscallStat
	GrandCount uint64
	GrandTotal time.Duration
	GrandMin   time.Duration
	GrandMax   time.Duration
}

// Profiler moves between Idle and Attached; Start and Stop bracket one
// tracing session. Every failure path after attach detaches again.
type Profiler struct {
	mu       sync.Mutex
	attached bool
	pid      int
	start    time.Time
	end      time.Time

	stats      [MaxSyscalls]SyscallStat
	grandCount uint64
	grandTotal time.Duration
	grandMin   time.Duration
	grandMax   time.Duration

	detachFlag int32
	done       chan struct{}
}

// New creates an idle profiler.
func New() *Profiler {
	return &Profiler{}
}

// Start attaches to pid and begins intercepting its syscalls.
func (p *Profiler) Start(pid int) error {
	if pid <= 0 {
		return ErrInvalidArg
	}

	p.mu.Lock()
	if p.attached {
		p.mu.Unlock()
		return ErrAlreadyProfiling
	}
	p.reset()
	p.done = make(chan struct{})
	p.mu.Unlock()

	if err := p.attach(pid); err != nil {
		return err
	}

	p.mu.Lock()
	p.attached = true
	p.pid = pid
	p.start = time.Now()
	p.mu.Unlock()
	debug.Logf(debug.Profiler, "attached to pid %d", pid)
	return nil
}

// Stop detaches and freezes the statistics.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	if !p.attached {
		p.mu.Unlock()
		return ErrNotProfiling
	}
	pid := p.pid
	done := p.done
	p.mu.Unlock()

	p.detach(pid)
	if done != nil {
		<-done
	}

	p.mu.Lock()
	p.attached = false
	p.pid = 0
	p.end = time.Now()
	p.mu.Unlock()
	debug.Logf(debug.Profiler, "detached from pid %d", pid)
	return nil
}

// Enabled reports whether a tracee is attached.
func (p *Profiler) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attached
}

func (p *Profiler) reset() {
	p.stats = [MaxSyscalls]SyscallStat{}
	p.grandCount = 0
	p.grandTotal = 0
	p.grandMin = 0
	p.grandMax = 0
	p.start = time.Time{}
	p.end = time.Time{}
}

// record folds one observed syscall into the accounting.
func (p *Profiler) record(num int, elapsed time.Duration) {
	if num < 0 || num >= MaxSyscalls {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.stats[num]
	if s.Count == 0 || elapsed < s.Min {
		s.Min = elapsed
	}
	if elapsed > s.Max {
		s.Max = elapsed
	}
	s.Count++
	s.Total += elapsed

	if p.grandCount == 0 || elapsed < p.grandMin {
		p.grandMin = elapsed
	}
	if elapsed > p.grandMax {
		p.grandMax = elapsed
	}
	p.grandCount++
	p.grandTotal += elapsed
}

// Snapshot copies the current statistics.
func (p *Profiler) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	end := p.end
	if p.attached {
		end = time.Now()
	}
	return Stats{
		Attached:   p.attached,
		Pid:        p.pid,
		Start:      p.start,
		End:        end,
		Syscalls:   p.stats,
		GrandCount: p.grandCount,
		GrandTotal: p.grandTotal,
		GrandMin:   p.grandMin,
		GrandMax:   p.grandMax,
	}
}
