package shell

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/qsh-sh/qsh/core/debug"
)

// installSignalHandlers sets the interactive dispositions: keyboard
// signals are swallowed by the shell and forwarded to the foreground
// process group, SIGTTIN/SIGTTOU are ignored and SIGCHLD drives job
// bookkeeping. Handling (rather than SIG_IGN-ing) the keyboard signals
// keeps the default dispositions in exec'd children.
func (s *Shell) installSignalHandlers() {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch,
		unix.SIGINT,
		unix.SIGQUIT,
		unix.SIGTSTP,
		unix.SIGTTIN,
		unix.SIGTTOU,
		unix.SIGCHLD,
	)

	go func() {
		for sig := range ch {
			switch sig {
			case unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP:
				s.forwardToForeground(sig.(syscall.Signal))
			case unix.SIGCHLD:
				s.reapChildren()
			}
		}
	}()
}

// forwardToForeground redelivers a keyboard signal to the current
// foreground process group, if any.
func (s *Shell) forwardToForeground(sig syscall.Signal) {
	if !s.interactive {
		return
	}
	pgid := s.executor.ForegroundPgid()
	if pgid <= 0 {
		return
	}
	debug.Logf(debug.Jobs, "forwarding %v to pgid %d", sig, pgid)
	unix.Kill(-pgid, sig)
}

// reapChildren drains state changes for background jobs with WNOHANG and
// WUNTRACED. The foreground group is left to the executor's own wait,
// which is authoritative for pipeline statuses.
func (s *Shell) reapChildren() {
	fg := s.executor.ForegroundPgid()
	for _, j := range s.jobs.Jobs() {
		if !j.Running || j.PGID == fg {
			continue
		}
		for _, pid := range j.Pids {
			var ws unix.WaitStatus
			got, err := unix.Wait4(pid, &ws, unix.WNOHANG|unix.WUNTRACED, nil)
			if err != nil || got != pid {
				continue
			}
			switch {
			case ws.Exited():
				s.jobs.MarkExited(pid, ws.ExitStatus())
			case ws.Signaled():
				s.jobs.MarkExited(pid, 128+int(ws.Signal()))
			case ws.Stopped():
				s.jobs.MarkStopped(pid)
			}
		}
	}
}
