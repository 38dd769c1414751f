package builtins

import "strconv"

// Exit asks the REPL to terminate, with an optional numeric status.
func Exit(inv *Invocation) int {
	status := 0
	if len(inv.Argv) > 1 {
		if n, err := strconv.Atoi(inv.Argv[1]); err == nil {
			status = n
		}
	}
	inv.OS.RequestExit(status)
	return status
}

func init() {
	register("exit", "Exit the shell", Exit)
}
