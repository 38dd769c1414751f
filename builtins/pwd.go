package builtins

import "fmt"

// Pwd prints the current directory.
func Pwd(inv *Invocation) int {
	fmt.Fprintln(inv.Stdout, inv.OS.Getwd())
	return 0
}

func init() {
	register("pwd", "Print the current directory", Pwd)
}
