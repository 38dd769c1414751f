package builtins

import (
	"fmt"
	"strings"
)

// Export marks variables exported, creating them from the environment when
// needed. NAME=VALUE arguments assign and export in one step.
func Export(inv *Invocation) int {
	if len(inv.Argv) < 2 {
		fmt.Fprintln(inv.Stderr, "usage: export NAME[=VALUE] ...")
		return 1
	}

	vars := inv.OS.Vars()
	status := 0
	for _, arg := range inv.Argv[1:] {
		if eq := strings.IndexByte(arg, '='); eq > 0 {
			if err := vars.Set(arg[:eq], arg[eq+1:], true); err != nil {
				fmt.Fprintf(inv.Stderr, "export: %v\n", err)
				status = 1
			}
			continue
		}
		if err := vars.Export(arg); err != nil {
			fmt.Fprintf(inv.Stderr, "export: %v\n", err)
			status = 1
		}
	}
	return status
}

// Unset removes variables and unexports them.
func Unset(inv *Invocation) int {
	if len(inv.Argv) < 2 {
		fmt.Fprintln(inv.Stderr, "usage: unset NAME ...")
		return 1
	}
	for _, name := range inv.Argv[1:] {
		inv.OS.Vars().Unset(name)
	}
	return 0
}

func init() {
	register("export", "Mark variables for export to child processes", Export)
	register("unset", "Remove shell variables", Unset)
}
