// Package job tracks background and suspended process groups.
package job

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/qsh-sh/qsh/core/debug"
)

// Job is one tracked process group.
type Job struct {
	ID      int
	PGID    int
	PID     int // first child of the group
	Pids    []int
	Cmd     string
	Running bool
	Stopped bool
	Status  int
}

// StateLabel renders the job state the way the jobs builtin and the prompt
// notifications print it.
func (j *Job) StateLabel() string {
	switch {
	case j.Stopped:
		return "Stopped"
	case j.Running:
		return "Running"
	default:
		return "Done"
	}
}

func (j *Job) line() string {
	return fmt.Sprintf("[%d] %s\t%s", j.ID, j.StateLabel(), j.Cmd)
}

// ErrNotFound reports an unknown job spec or pid.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports an unknown job spec or pid.
type NotFoundError struct {
	Spec string
}

func (e *NotFoundError) Error() string {
	if e.Spec == "" {
		return "job not found"
	}
	return e.Spec + ": job not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// Table is the shell's job list. Job ids are allocated monotonically and
// entries persist until explicitly removed or reaped.
type Table struct {
	mu            sync.Mutex
	jobs          []*Job
	nextID        int
	notifications []string
}

// NewTable creates an empty job table.
func NewTable() *Table {
	return &Table{nextID: 1}
}

// Add registers a new process group and returns its job.
func (t *Table) Add(pgid int, pids []int, cmd string) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	first := pgid
	if len(pids) > 0 {
		first = pids[0]
	}
	j := &Job{
		ID:      t.nextID,
		PGID:    pgid,
		PID:     first,
		Pids:    append([]int(nil), pids...),
		Cmd:     cmd,
		Running: true,
	}
	t.nextID++
	t.jobs = append(t.jobs, j)
	debug.Logf(debug.Jobs, "added job [%d] pgid=%d cmd=%q", j.ID, j.PGID, j.Cmd)
	return j
}

// Remove drops a job from the table.
func (t *Table) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, j := range t.jobs {
		if j.ID == id {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			return
		}
	}
}

// ByID finds a job by id.
func (t *Table) ByID(id int) (*Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// BySpec resolves a "%N" job spec or a plain pid string.
func (t *Table) BySpec(spec string) (*Job, error) {
	numeric := spec
	byPid := true
	if strings.HasPrefix(spec, "%") {
		numeric = spec[1:]
		byPid = false
	}
	n, err := strconv.Atoi(numeric)
	if err != nil {
		return nil, &NotFoundError{Spec: spec}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if byPid {
			for _, pid := range j.Pids {
				if pid == n {
					return j, nil
				}
			}
			continue
		}
		if j.ID == n {
			return j, nil
		}
	}
	return nil, &NotFoundError{Spec: spec}
}

// Jobs returns a snapshot of the table in id order.
func (t *Table) Jobs() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// MarkExited records that one of a job's processes exited. The job stops
// running as soon as any of its processes is known exited; the exit status
// of the last observed child is kept.
func (t *Table) MarkExited(pid, status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := t.byPid(pid)
	if j == nil {
		return
	}
	j.Running = false
	j.Stopped = false
	j.Status = status
	t.notifications = append(t.notifications, j.line())
	debug.Logf(debug.Jobs, "job [%d] pid %d exited status=%d", j.ID, pid, status)
}

// MarkStopped records that a job's process was stopped by a signal.
func (t *Table) MarkStopped(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := t.byPid(pid)
	if j == nil {
		return
	}
	j.Running = false
	j.Stopped = true
	t.notifications = append(t.notifications, j.line())
	debug.Logf(debug.Jobs, "job [%d] pid %d stopped", j.ID, pid)
}

// MarkContinued records that a job resumed running.
func (t *Table) MarkContinued(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.ID == id {
			j.Running = true
			j.Stopped = false
			return
		}
	}
}

func (t *Table) byPid(pid int) *Job {
	for _, j := range t.jobs {
		for _, p := range j.Pids {
			if p == pid {
				return j
			}
		}
	}
	return nil
}

// Notifications drains the queued state-change lines. The REPL prints them
// before redrawing the prompt; nothing is written from signal context.
func (t *Table) Notifications() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.notifications
	t.notifications = nil
	return out
}

// ReapDone removes completed jobs from the table and returns them.
func (t *Table) ReapDone() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var done []*Job
	var live []*Job
	for _, j := range t.jobs {
		if !j.Running && !j.Stopped {
			done = append(done, j)
			continue
		}
		live = append(live, j)
	}
	t.jobs = live
	return done
}

// Write prints every job as "[id] State\tcmd", the jobs builtin's format.
func (t *Table) Write(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		fmt.Fprintln(w, j.line())
	}
}
