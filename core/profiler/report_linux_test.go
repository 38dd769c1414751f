//go:build linux

package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
)

// The golden file pins the exact report layout, including the syscall name
// column width.
func TestReportGolden(t *testing.T) {
	color.NoColor = true
	p := New()
	p.record(0, time.Millisecond) // read
	p.record(0, time.Millisecond)
	p.record(0, time.Millisecond)
	p.record(1, 2*time.Millisecond) // write
	p.start = time.Unix(1000, 0)
	p.end = time.Unix(1001, 500_000_000)

	var buf bytes.Buffer
	p.WriteReport(&buf)

	g := goldie.New(t)
	g.Assert(t, "report", buf.Bytes())
}
