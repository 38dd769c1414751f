package builtins

import (
	"errors"
	"fmt"

	"github.com/qsh-sh/qsh/core/job"
)

// Jobs lists the job table.
func Jobs(inv *Invocation) int {
	inv.OS.Jobs().Write(inv.Stdout)
	return 0
}

// Fg moves a job into the foreground, continuing it if stopped.
func Fg(inv *Invocation) int {
	j, ok := resolveJob(inv, "fg")
	if !ok {
		return 1
	}
	return inv.OS.ForegroundJob(j, j.Stopped)
}

// Bg resumes a stopped job in the background.
func Bg(inv *Invocation) int {
	j, ok := resolveJob(inv, "bg")
	if !ok {
		return 1
	}
	if err := inv.OS.ContinueJob(j); err != nil {
		fmt.Fprintf(inv.Stderr, "bg: %v\n", err)
		return 1
	}
	return 0
}

// Wait blocks for one job, or every job when no spec is given.
func Wait(inv *Invocation) int {
	if len(inv.Argv) > 1 {
		j, ok := resolveJob(inv, "wait")
		if !ok {
			return 1
		}
		return inv.OS.WaitJob(j)
	}

	status := 0
	for _, j := range inv.OS.Jobs().Jobs() {
		status = inv.OS.WaitJob(j)
	}
	return status
}

// resolveJob parses argv[1] as a %N job spec or pid. With no argument the
// most recently created job is used.
func resolveJob(inv *Invocation, name string) (*job.Job, bool) {
	table := inv.OS.Jobs()

	if len(inv.Argv) < 2 {
		jobs := table.Jobs()
		if len(jobs) == 0 {
			fmt.Fprintf(inv.Stderr, "%s: no current job\n", name)
			return nil, false
		}
		return jobs[len(jobs)-1], true
	}

	j, err := table.BySpec(inv.Argv[1])
	if err != nil {
		var notFound *job.NotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(inv.Stderr, "%s: %v\n", name, err)
		} else {
			fmt.Fprintf(inv.Stderr, "%s: %s: invalid job spec\n", name, inv.Argv[1])
		}
		return nil, false
	}
	return j, true
}

func init() {
	register("jobs", "List background and stopped jobs", Jobs)
	register("fg", "Move a job to the foreground", Fg)
	register("bg", "Continue a stopped job in the background", Bg)
	register("wait", "Wait for background jobs", Wait)
}
