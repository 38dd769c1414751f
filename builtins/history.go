package builtins

import (
	"github.com/qsh-sh/qsh/core/history"
)

// History lists the command history with indices, timestamps and exit
// statuses. -s filters by substring, -p by glob pattern.
func History(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "history [-s SUBSTRING | -p PATTERN]",
		Short: "Show command history.",
	}

	opt := cmd.Flags()
	substring := opt.String('s', "", "show entries containing a substring")
	pattern := opt.String('p', "", "show entries matching a glob pattern")

	return cmd.Run(inv, func() int {
		ring := inv.OS.History()
		switch {
		case *substring != "":
			history.WriteEntries(inv.Stdout, ring.SearchSubstring(*substring))
		case *pattern != "":
			history.WriteEntries(inv.Stdout, ring.SearchPattern(*pattern))
		default:
			ring.Write(inv.Stdout)
		}
		return 0
	})
}

func init() {
	register("history", "Show command history", History)
}
