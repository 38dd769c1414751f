// Package exec drives parsed command chains: it dispatches internal
// commands, builds pipelines, applies redirections and performs job
// control against the controlling terminal.
package exec

import (
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/qsh-sh/qsh/builtins"
	"github.com/qsh-sh/qsh/core/debug"
	"github.com/qsh-sh/qsh/core/job"
	"github.com/qsh-sh/qsh/core/parse"
)

// Stdio bundles the executor's default streams. Child processes receive
// them directly when they are *os.File.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Terminal hands the controlling terminal between the shell and foreground
// process groups. A nil Terminal (non-interactive mode) skips terminal
// operations.
type Terminal interface {
	// Claim makes pgid the terminal's foreground process group.
	Claim(pgid int) error
	// Reclaim restores the saved terminal modes and returns the terminal
	// to the shell's process group.
	Reclaim() error
}

// Executor walks command chains and runs them.
type Executor struct {
	IO   Stdio
	Jobs *job.Table
	OS   builtins.OS
	Term Terminal

	// Interactive enables process groups, WUNTRACED waits and terminal
	// handoff. The shell sets it whenever stdin is a terminal, -c lines
	// included; tests and subshell capture leave it false.
	Interactive bool

	// ReadLine supplies here-document lines; the REPL wires it to the
	// line reader.
	ReadLine func(prompt string) (string, error)

	// StatusSink observes every node's exit status as soon as it is
	// known, before the next chain step runs.
	StatusSink func(status int)

	fgPgid int32
}

// ForegroundPgid reports the process group currently being waited on in
// the foreground, or 0.
func (e *Executor) ForegroundPgid() int {
	return int(atomic.LoadInt32(&e.fgPgid))
}

// Run executes a chain and returns the status of the controlling node per
// the short-circuit rules.
func (e *Executor) Run(chain *parse.Command) int {
	status := 0
	for node := chain; node != nil; {
		switch {
		case node.Op == parse.OpPipe:
			status = e.runPipeline(&node)
		case e.lookupBuiltin(node) != nil:
			status = e.runBuiltin(node)
		default:
			status = e.runExternal(node)
		}
		e.publish(status)

		switch node.Op {
		case parse.OpAnd:
			if status != 0 {
				return status
			}
		case parse.OpOr:
			if status == 0 {
				return 0
			}
		}
		node = node.Next
	}
	return status
}

func (e *Executor) publish(status int) {
	if e.StatusSink != nil {
		e.StatusSink(status)
	}
}

func (e *Executor) lookupBuiltin(node *parse.Command) builtins.Func {
	if len(node.Argv) == 0 {
		return nil
	}
	fn, ok := builtins.Lookup(node.Name)
	if !ok {
		return nil
	}
	return fn
}

// runBuiltin applies the node's redirections onto the executor's streams
// and invokes the handler in-process. No fork happens; the streams are
// restored simply by scoping them to the invocation.
func (e *Executor) runBuiltin(node *parse.Command) int {
	fn := e.lookupBuiltin(node)

	stdio, cleanup, err := e.applyRedirections(node.Redirections, e.IO, applyAll)
	if err != nil {
		fmt.Fprintln(e.IO.Err, err)
		return 1
	}
	defer cleanup()

	inv := &builtins.Invocation{
		OS:     e.OS,
		Argv:   node.Argv,
		Stdin:  stdio.In,
		Stdout: stdio.Out,
		Stderr: stdio.Err,
	}
	status := fn(inv)
	debug.Logf(debug.Executor, "builtin %s -> %d", node.Name, status)
	return status
}

// runExternal forks a single external command. Background nodes are
// registered as jobs and not waited for.
func (e *Executor) runExternal(node *parse.Command) int {
	stdio, cleanup, err := e.applyRedirections(node.Redirections, e.IO, applyAll)
	if err != nil {
		fmt.Fprintln(e.IO.Err, err)
		return 1
	}
	defer cleanup()

	path, err := osexec.LookPath(node.Name)
	if err != nil {
		fmt.Fprintf(e.IO.Err, "%s: command not found\n", node.Name)
		return 127
	}

	cmd := e.command(path, node.Argv, stdio, 0)
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(e.IO.Err, "%s: %v\n", node.Name, err)
		return 1
	}

	if node.Op == parse.OpBackground {
		j := e.Jobs.Add(cmd.Process.Pid, []int{cmd.Process.Pid}, node.Text())
		debug.Logf(debug.Executor, "background job [%d] pid=%d", j.ID, cmd.Process.Pid)
		return 0
	}

	return e.waitForeground([]*osexec.Cmd{cmd}, nil)
}

// runPipeline consumes the run of Pipe-linked nodes starting at *nodep,
// leaving *nodep on the pipeline's last stage.
func (e *Executor) runPipeline(nodep **parse.Command) int {
	stages := []*parse.Command{*nodep}
	for stages[len(stages)-1].Op == parse.OpPipe {
		next := stages[len(stages)-1].Next
		if next == nil {
			break
		}
		stages = append(stages, next)
	}
	*nodep = stages[len(stages)-1]

	k := len(stages)
	pipes := make([][2]*os.File, 0, k-1)
	for i := 0; i < k-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			fmt.Fprintf(e.IO.Err, "pipe: %v\n", err)
			closePipes(pipes)
			return 1
		}
		pipes = append(pipes, [2]*os.File{r, w})
	}

	var cmds []*osexec.Cmd
	var cleanups []func()
	failStatus := make([]int, k)
	pgid := 0

	for i, stage := range stages {
		stdio := e.IO
		if i > 0 {
			stdio.In = pipes[i-1][0]
		}
		if i < k-1 {
			stdio.Out = pipes[i][1]
		}

		// The first stage honors only its input redirections; the last
		// honors everything (its output redirections override the pipe);
		// middle stages honor none.
		mode := applyNone
		if i == 0 {
			mode = applyInputOnly
		}
		if i == k-1 {
			mode = applyAll
		}
		var err error
		var cleanup func()
		stdio, cleanup, err = e.applyRedirections(stage.Redirections, stdio, mode)
		if err != nil {
			fmt.Fprintln(e.IO.Err, err)
			failStatus[i] = 1
			cmds = append(cmds, nil)
			continue
		}
		cleanups = append(cleanups, cleanup)

		path, err := osexec.LookPath(stage.Name)
		if err != nil {
			fmt.Fprintf(e.IO.Err, "%s: command not found\n", stage.Name)
			failStatus[i] = 127
			cmds = append(cmds, nil)
			continue
		}

		cmd := e.command(path, stage.Argv, stdio, pgid)
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(e.IO.Err, "%s: %v\n", stage.Name, err)
			failStatus[i] = 1
			cmds = append(cmds, nil)
			continue
		}
		if pgid == 0 {
			pgid = cmd.Process.Pid
		}
		cmds = append(cmds, cmd)
	}

	// The parent keeps no pipe ends open while the children run.
	closePipes(pipes)
	defer func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	var started []*osexec.Cmd
	var pids []int
	for _, cmd := range cmds {
		if cmd != nil {
			started = append(started, cmd)
			pids = append(pids, cmd.Process.Pid)
		}
	}
	if len(started) == 0 {
		return failStatus[k-1]
	}

	var j *job.Job
	if e.Interactive {
		j = e.Jobs.Add(pgid, pids, pipelineText(stages))
	}

	status := e.waitForeground(started, j)
	if cmds[k-1] == nil {
		// The rightmost stage never ran; its failure is the pipeline's
		// status.
		status = failStatus[k-1]
	}
	return status
}

func pipelineText(stages []*parse.Command) string {
	out := ""
	for i, s := range stages {
		if i > 0 {
			out += " | "
		}
		out += s.Name
	}
	return out
}

func closePipes(pipes [][2]*os.File) {
	for _, p := range pipes {
		p[0].Close()
		p[1].Close()
	}
}

// command builds an exec.Cmd for one child. In interactive mode the child
// is placed into the process group pgid (0 creates a fresh group from the
// child's own pid).
func (e *Executor) command(path string, argv []string, stdio Stdio, pgid int) *osexec.Cmd {
	cmd := &osexec.Cmd{
		Path:   path,
		Args:   argv,
		Stdin:  stdio.In,
		Stdout: stdio.Out,
		Stderr: stdio.Err,
	}
	if e.Interactive {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
	}
	return cmd
}

// waitForeground places the children's group into the foreground and waits
// for every child, taking the last child's exit status. A stop leaves the
// job suspended in the table; completed foreground jobs are removed.
func (e *Executor) waitForeground(cmds []*osexec.Cmd, j *job.Job) int {
	pgid := cmds[0].Process.Pid
	atomic.StoreInt32(&e.fgPgid, int32(pgid))
	defer atomic.StoreInt32(&e.fgPgid, 0)
	if e.Interactive && e.Term != nil {
		if err := e.Term.Claim(pgid); err != nil {
			debug.Logf(debug.Executor, "terminal claim failed: %v", err)
		}
		defer func() {
			if err := e.Term.Reclaim(); err != nil {
				debug.Logf(debug.Executor, "terminal reclaim failed: %v", err)
			}
		}()
	}

	status := 0
	stopped := false
	for _, cmd := range cmds {
		st, stop := e.waitChild(cmd)
		status = st
		if stop {
			stopped = true
			if j != nil {
				e.Jobs.MarkStopped(cmd.Process.Pid)
			}
		}
	}

	if j != nil && !stopped {
		e.Jobs.Remove(j.ID)
	}
	return status
}

// waitChild reaps a single child. Interactive mode waits directly with
// WUNTRACED so stops are observed; otherwise the exec.Cmd machinery waits
// (and flushes any stream copies).
func (e *Executor) waitChild(cmd *osexec.Cmd) (status int, stopped bool) {
	if !e.Interactive {
		err := cmd.Wait()
		if err == nil {
			return 0, false
		}
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), false
		}
		return 1, false
	}

	pid := cmd.Process.Pid
	defer cmd.Process.Release()
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 1, false
		}
		break
	}
	return decodeWait(ws)
}

func decodeWait(ws unix.WaitStatus) (status int, stopped bool) {
	switch {
	case ws.Exited():
		return ws.ExitStatus(), false
	case ws.Stopped():
		return 128 + int(ws.StopSignal()), true
	case ws.Signaled():
		return 128 + int(ws.Signal()), false
	default:
		return 1, false
	}
}

// WaitForJob continues a stopped job if asked, places it into the
// foreground and waits for its remaining processes. The fg builtin runs
// through here.
func (e *Executor) WaitForJob(j *job.Job, cont bool) int {
	atomic.StoreInt32(&e.fgPgid, int32(j.PGID))
	defer atomic.StoreInt32(&e.fgPgid, 0)
	if e.Term != nil {
		if err := e.Term.Claim(j.PGID); err != nil {
			debug.Logf(debug.Executor, "terminal claim failed: %v", err)
		}
		defer func() {
			if err := e.Term.Reclaim(); err != nil {
				debug.Logf(debug.Executor, "terminal reclaim failed: %v", err)
			}
		}()
	}
	if cont {
		if err := unix.Kill(-j.PGID, unix.SIGCONT); err != nil {
			fmt.Fprintf(e.IO.Err, "fg: %v\n", err)
			return 1
		}
		e.Jobs.MarkContinued(j.ID)
	}
	return e.waitJobPids(j, unix.WUNTRACED)
}

// WaitJob blocks until every process of a background job has exited. The
// wait builtin runs through here; no terminal handoff happens.
func (e *Executor) WaitJob(j *job.Job) int {
	return e.waitJobPids(j, 0)
}

func (e *Executor) waitJobPids(j *job.Job, options int) int {
	status := j.Status
	stopped := false
	for _, pid := range j.Pids {
		var ws unix.WaitStatus
		for {
			_, err := unix.Wait4(pid, &ws, options, nil)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				// Already reaped elsewhere; keep the recorded status.
				break
			}
			st, stop := decodeWait(ws)
			status = st
			if stop {
				stopped = true
				e.Jobs.MarkStopped(pid)
			}
			break
		}
	}
	if !stopped {
		e.Jobs.Remove(j.ID)
	}
	return status
}
