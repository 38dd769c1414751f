package builtins

import (
	"fmt"
	"strings"
)

// Alias lists or defines aliases. With no arguments every alias is
// printed; NAME=VALUE defines one, stripping matched surrounding quotes
// from the value.
func Alias(inv *Invocation) int {
	aliases := inv.OS.Aliases()

	if len(inv.Argv) < 2 {
		for _, name := range aliases.Names() {
			value, _ := aliases.Get(name)
			fmt.Fprintf(inv.Stdout, "alias %s='%s'\n", name, value)
		}
		return 0
	}

	eq := strings.IndexByte(inv.Argv[1], '=')
	if eq <= 0 {
		// A bare name prints that alias.
		name := inv.Argv[1]
		value, ok := aliases.Get(name)
		if !ok {
			fmt.Fprintf(inv.Stderr, "alias: %s: not found\n", name)
			return 1
		}
		fmt.Fprintf(inv.Stdout, "alias %s='%s'\n", name, value)
		return 0
	}

	name := inv.Argv[1][:eq]
	value := inv.Argv[1][eq+1:]
	// The tokenizer may have split a quoted value into a separate word:
	// alias ll='ls -l' arrives as "ll=" plus "ls -l".
	if value == "" && len(inv.Argv) > 2 {
		value = strings.Join(inv.Argv[2:], " ")
	}
	value = stripQuotes(value)

	if err := aliases.Set(name, value); err != nil {
		fmt.Fprintf(inv.Stderr, "alias: %v\n", err)
		return 1
	}
	return 0
}

// Unalias removes aliases.
func Unalias(inv *Invocation) int {
	if len(inv.Argv) < 2 {
		fmt.Fprintln(inv.Stderr, "usage: unalias NAME ...")
		return 1
	}
	status := 0
	for _, name := range inv.Argv[1:] {
		if !inv.OS.Aliases().Unset(name) {
			fmt.Fprintf(inv.Stderr, "unalias: %s: not found\n", name)
			status = 1
		}
	}
	return status
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func init() {
	register("alias", "Define or list command aliases", Alias)
	register("unalias", "Remove command aliases", Unalias)
}
