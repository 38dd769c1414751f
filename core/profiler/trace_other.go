//go:build !(linux && amd64)

package profiler

// Syscall tracing needs Linux ptrace and x86_64 register layout; elsewhere
// Start surfaces "profiling not supported".
func (p *Profiler) attach(pid int) error {
	close(p.done)
	return ErrSyscallFailed
}

func (p *Profiler) detach(pid int) {}
