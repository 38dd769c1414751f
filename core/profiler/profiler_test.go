package profiler

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopWhileIdle(t *testing.T) {
	p := New()
	assert.ErrorIs(t, p.Stop(), ErrNotProfiling)
}

func TestStartInvalidPid(t *testing.T) {
	p := New()
	assert.ErrorIs(t, p.Start(0), ErrInvalidArg)
	assert.ErrorIs(t, p.Start(-1), ErrInvalidArg)
}

func TestStartUnattachablePid(t *testing.T) {
	p := New()

	// Far beyond any kernel's pid_max, so the attach always fails and the
	// profiler stays idle.
	err := p.Start(999999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyscallFailed)
	assert.False(t, p.Enabled())

	// The failed start left no session behind.
	assert.ErrorIs(t, p.Stop(), ErrNotProfiling)
}

func TestRecordInvariants(t *testing.T) {
	p := New()

	durations := []time.Duration{
		5 * time.Microsecond,
		2 * time.Microsecond,
		9 * time.Microsecond,
		4 * time.Microsecond,
	}
	for _, d := range durations {
		p.record(0, d)
	}
	p.record(1, 7*time.Microsecond)

	stats := p.Snapshot()

	read := stats.Syscalls[0]
	assert.Equal(t, uint64(4), read.Count)
	assert.Equal(t, 2*time.Microsecond, read.Min)
	assert.Equal(t, 9*time.Microsecond, read.Max)
	avg := read.Total / time.Duration(read.Count)
	assert.LessOrEqual(t, read.Min, avg)
	assert.LessOrEqual(t, avg, read.Max)

	assert.Equal(t, uint64(5), stats.GrandCount)
	assert.Equal(t, 2*time.Microsecond, stats.GrandMin)
	assert.Equal(t, 9*time.Microsecond, stats.GrandMax)
}

func TestRecordIgnoresOutOfRange(t *testing.T) {
	p := New()
	p.record(-1, time.Microsecond)
	p.record(MaxSyscalls, time.Microsecond)

	assert.Equal(t, uint64(0), p.Snapshot().GrandCount)
}

func TestReportTieBreaksBySyscallNumber(t *testing.T) {
	color.NoColor = true
	p := New()
	p.record(5, time.Microsecond)
	p.record(3, time.Microsecond)

	var buf bytes.Buffer
	p.WriteReport(&buf)
	out := buf.String()

	first := strings.Index(out, SyscallName(3))
	second := strings.Index(out, SyscallName(5))
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestReportTopTen(t *testing.T) {
	color.NoColor = true
	p := New()
	for num := 0; num < 12; num++ {
		for i := 0; i <= num; i++ {
			p.record(num, time.Microsecond)
		}
	}

	var buf bytes.Buffer
	p.WriteReport(&buf)

	// Only the ten busiest syscalls appear: numbers 2..11.
	assert.NotContains(t, buf.String(), SyscallName(0)+" ")
	assert.Contains(t, buf.String(), SyscallName(11))
}

