package builtins

import "fmt"

// Cd changes the working directory. "cd -" swaps with the previous
// directory and a missing argument goes home.
func Cd(inv *Invocation) int {
	target := ""
	if len(inv.Argv) > 1 {
		target = inv.Argv[1]
	}

	switch target {
	case "":
		target = inv.OS.HomeDir()
		if target == "" {
			fmt.Fprintln(inv.Stderr, "cd: no home directory")
			return 1
		}
	case "-":
		target = inv.OS.PrevWd()
		if target == "" {
			fmt.Fprintln(inv.Stderr, "cd: no previous directory")
			return 1
		}
	}

	if err := inv.OS.Chdir(target); err != nil {
		fmt.Fprintf(inv.Stderr, "cd: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	register("cd", "Change the current directory", Cd)
}
