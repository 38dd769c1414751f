package builtins

import (
	"fmt"
	"os"
	"strconv"
)

// Profile manages the syscall profiler: on [PID] attaches (default: the
// shell itself), off detaches and status prints the report.
func Profile(inv *Invocation) int {
	if len(inv.Argv) < 2 {
		fmt.Fprintln(inv.Stderr, "usage: profile <on [PID]|off|status>")
		return 1
	}

	prof := inv.OS.Profiler()
	switch inv.Argv[1] {
	case "on":
		pid := os.Getpid()
		if len(inv.Argv) > 2 {
			n, err := strconv.Atoi(inv.Argv[2])
			if err != nil {
				fmt.Fprintf(inv.Stderr, "profile: %s: invalid pid\n", inv.Argv[2])
				return 1
			}
			pid = n
		}
		if err := prof.Start(pid); err != nil {
			fmt.Fprintf(inv.Stderr, "profile: %v\n", err)
			return 1
		}
		fmt.Fprintln(inv.Stdout, "Profiling enabled")
		return 0

	case "off":
		if err := prof.Stop(); err != nil {
			fmt.Fprintf(inv.Stderr, "profile: %v\n", err)
			return 1
		}
		fmt.Fprintln(inv.Stdout, "Profiling disabled")
		return 0

	case "status":
		prof.WriteReport(inv.Stdout)
		return 0

	default:
		fmt.Fprintf(inv.Stderr, "profile: invalid command: %s\n", inv.Argv[1])
		return 1
	}
}

func init() {
	register("profile", "Manage syscall profiling", Profile)
}
