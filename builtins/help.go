package builtins

import "fmt"

// Help prints a one-line description of every builtin.
func Help(inv *Invocation) int {
	fmt.Fprintln(inv.Stdout, "Built-in commands:")
	for _, info := range List() {
		fmt.Fprintf(inv.Stdout, "  %-10s %s\n", info.Name, info.Help)
	}
	return 0
}

func init() {
	register("help", "Show help for built-in commands", Help)
}
