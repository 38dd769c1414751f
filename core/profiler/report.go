package profiler

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
)

var reportHeading = color.New(color.FgCyan, color.Bold)

// WriteReport prints the profiling report: status, wall-clock interval,
// grand totals and the top ten syscalls by count. Ties are broken by
// syscall number ascending.
func (p *Profiler) WriteReport(w io.Writer) {
	stats := p.Snapshot()

	fmt.Fprintln(w)
	reportHeading.Fprintln(w, "Profiling Report")
	reportHeading.Fprintln(w, "===============")
	status := "disabled"
	if stats.Attached {
		status = "enabled"
	}
	fmt.Fprintf(w, "Status: %s\n", status)
	fmt.Fprintf(w, "Total time: %.6f seconds\n", stats.End.Sub(stats.Start).Seconds())
	fmt.Fprintf(w, "Total syscalls: %d\n", stats.GrandCount)

	if stats.GrandCount == 0 {
		return
	}

	avg := stats.GrandTotal.Seconds() / float64(stats.GrandCount)
	fmt.Fprintf(w, "Average syscall time: %.6f seconds\n", avg)
	fmt.Fprintf(w, "Min syscall time: %.6f seconds\n", stats.GrandMin.Seconds())
	fmt.Fprintf(w, "Max syscall time: %.6f seconds\n", stats.GrandMax.Seconds())

	fmt.Fprintln(w)
	reportHeading.Fprintln(w, "Top 10 System Calls:")
	reportHeading.Fprintln(w, "-------------------")

	type numbered struct {
		num  int
		stat SyscallStat
	}
	var active []numbered
	for num, stat := range stats.Syscalls {
		if stat.Count > 0 {
			active = append(active, numbered{num: num, stat: stat})
		}
	}
	// Stable keeps ties in syscall-number order since active is built
	// ascending.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].stat.Count > active[j].stat.Count
	})

	for i, entry := range active {
		if i == 10 {
			break
		}
		avg := entry.stat.Total.Seconds() / float64(entry.stat.Count)
		fmt.Fprintf(w, "%-20s: %d calls, avg time: %.6f seconds\n",
			SyscallName(entry.num), entry.stat.Count, avg)
	}
}
