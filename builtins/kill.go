package builtins

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/qsh-sh/qsh/core/job"
)

// Kill sends a signal to a job (%N) or a pid. Signals may be named
// (-KILL, -TERM, -INT, -HUP, ...) or numeric (-9); the default is TERM.
func Kill(inv *Invocation) int {
	args := inv.Argv[1:]

	sig := unix.SIGTERM
	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		parsed, ok := parseSignal(args[0][1:])
		if !ok {
			fmt.Fprintf(inv.Stderr, "kill: %s: invalid signal\n", args[0])
			return 1
		}
		sig = parsed
		args = args[1:]
	}

	if len(args) == 0 {
		fmt.Fprintln(inv.Stderr, "usage: kill [-SIG] %job | pid ...")
		return 1
	}

	status := 0
	for _, target := range args {
		if err := signalTarget(inv, target, sig); err != nil {
			fmt.Fprintf(inv.Stderr, "kill: %v\n", err)
			status = 1
		}
	}
	return status
}

func parseSignal(spec string) (syscall.Signal, bool) {
	if n, err := strconv.Atoi(spec); err == nil {
		if n <= 0 || n >= 64 {
			return 0, false
		}
		return syscall.Signal(n), true
	}

	name := strings.ToUpper(spec)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, false
	}
	return sig, true
}

// signalTarget delivers the signal: jobs get the whole process group,
// plain pids just the process.
func signalTarget(inv *Invocation, target string, sig syscall.Signal) error {
	if strings.HasPrefix(target, "%") {
		j, err := inv.OS.Jobs().BySpec(target)
		if err != nil {
			var notFound *job.NotFoundError
			if errors.As(err, &notFound) {
				return errors.New("job not found")
			}
			return err
		}
		return unix.Kill(-j.PGID, sig)
	}

	pid, err := strconv.Atoi(target)
	if err != nil {
		return fmt.Errorf("%s: arguments must be job specs or pids", target)
	}
	return unix.Kill(pid, sig)
}

func init() {
	register("kill", "Send a signal to a job or process", Kill)
}
