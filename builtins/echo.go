package builtins

import (
	"fmt"
	"strings"
)

var echoUnescape = strings.NewReplacer(
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
	`\\`, `\`,
)

// Echo prints its arguments separated by spaces. -n suppresses the
// trailing newline and -e interprets backslash escapes; the combined -ne
// and -en forms work through normal short-flag grouping.
func Echo(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   "echo [-n] [-e] [ARG] ...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	noNewline := opt.Bool('n', "do not output the trailing newline")
	escaped := opt.Bool('e', "interpret backslash escapes")

	return cmd.Run(inv, func() int {
		for i, arg := range opt.Args() {
			if i > 0 {
				fmt.Fprint(inv.Stdout, " ")
			}
			if *escaped {
				arg = echoUnescape.Replace(arg)
			}
			fmt.Fprint(inv.Stdout, arg)
		}
		if !*noNewline {
			fmt.Fprintln(inv.Stdout)
		}
		return 0
	})
}

func init() {
	register("echo", "Display a line of text", Echo)
}
