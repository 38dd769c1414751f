//go:build linux && amd64

package profiler

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/qsh-sh/qsh/core/debug"
)

// attach starts the trace loop on a dedicated OS thread. All ptrace calls
// for a tracee must come from the attaching thread, so the loop owns the
// whole session from PTRACE_ATTACH through PTRACE_DETACH.
func (p *Profiler) attach(pid int) error {
	result := make(chan error, 1)
	go p.traceLoop(pid, result)
	return <-result
}

// detach asks the trace loop to stop. SIGSTOP forces a stop event so the
// loop's wait returns even when the tracee sits in a long syscall.
func (p *Profiler) detach(pid int) {
	atomic.StoreInt32(&p.detachFlag, 1)
	unix.Kill(pid, unix.SIGSTOP)
}

func (p *Profiler) traceLoop(pid int, result chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.done)

	atomic.StoreInt32(&p.detachFlag, 0)

	if err := unix.PtraceAttach(pid); err != nil {
		result <- fmt.Errorf("%w: attach pid %d: %v", ErrSyscallFailed, pid, err)
		return
	}

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		unix.PtraceDetach(pid)
		result <- fmt.Errorf("%w: wait: %v", ErrSyscallFailed, err)
		return
	}
	if err := unix.PtraceSetOptions(pid, unix.PTRACE_O_TRACESYSGOOD); err != nil {
		unix.PtraceDetach(pid)
		result <- fmt.Errorf("%w: set options: %v", ErrSyscallFailed, err)
		return
	}
	if err := unix.PtraceSyscall(pid, 0); err != nil {
		unix.PtraceDetach(pid)
		result <- fmt.Errorf("%w: resume: %v", ErrSyscallFailed, err)
		return
	}
	result <- nil

	for {
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if ws.Exited() || ws.Signaled() {
			debug.Logf(debug.Profiler, "tracee %d gone", pid)
			return
		}
		if !ws.Stopped() {
			continue
		}

		if atomic.LoadInt32(&p.detachFlag) != 0 {
			unix.PtraceDetach(pid)
			unix.Kill(pid, unix.SIGCONT)
			return
		}

		if !isSyscallStop(ws) {
			// Deliver the pending signal and keep tracing.
			unix.PtraceSyscall(pid, int(ws.StopSignal()))
			continue
		}

		// Syscall entry: read the number, continue to the exit stop and
		// account the elapsed time.
		var regs unix.PtraceRegs
		if err := unix.PtraceGetRegs(pid, &regs); err != nil {
			unix.PtraceSyscall(pid, 0)
			continue
		}
		num := int(regs.Orig_rax)
		entered := time.Now()

		if err := unix.PtraceSyscall(pid, 0); err != nil {
			return
		}
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			return
		}
		if ws.Exited() || ws.Signaled() {
			return
		}
		p.record(num, time.Since(entered))

		if err := unix.PtraceSyscall(pid, 0); err != nil {
			return
		}
	}
}

// isSyscallStop reports a PTRACE_O_TRACESYSGOOD syscall stop: the status
// carries SIGTRAP with bit 7 set.
func isSyscallStop(ws unix.WaitStatus) bool {
	return ws.Stopped() && (uint32(ws)>>8) == uint32(unix.SIGTRAP)|0x80
}
