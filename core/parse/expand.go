package parse

import (
	"os"
	"os/user"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandTilde rewrites a leading ~ or ~USER. An unknown user leaves the
// word untouched.
func (p *parser) expandTilde(word string) string {
	if !strings.HasPrefix(word, "~") {
		return word
	}

	rest := word[1:]
	slash := strings.IndexByte(rest, '/')
	name, suffix := rest, ""
	if slash >= 0 {
		name, suffix = rest[:slash], rest[slash:]
	}

	if name == "" {
		home, ok := p.opts.Home()
		if !ok {
			return word
		}
		return home + suffix
	}

	home, ok := p.opts.UserHome(name)
	if !ok {
		return word
	}
	return home + suffix
}

func defaultHome() (string, bool) {
	if home, ok := os.LookupEnv("HOME"); ok && home != "" {
		return home, true
	}
	u, err := user.Current()
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	return u.HomeDir, true
}

func defaultUserHome(name string) (string, bool) {
	u, err := user.Lookup(name)
	if err != nil || u.HomeDir == "" {
		return "", false
	}
	return u.HomeDir, true
}

// defaultGlob expands a pattern against the filesystem with brace support.
// A pattern that matches nothing (or fails to parse) is passed through
// unchanged rather than failing the command.
func defaultGlob(pattern string) []string {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil || len(matches) == 0 {
		return []string{pattern}
	}
	sort.Strings(matches)
	return matches
}
