// Package builtins implements the commands the shell handles in-process,
// without fork+exec.
package builtins

import (
	"fmt"
	"io"
	"sort"

	getopt "github.com/pborman/getopt/v2"

	"github.com/qsh-sh/qsh/core/history"
	"github.com/qsh-sh/qsh/core/job"
	"github.com/qsh-sh/qsh/core/profiler"
	"github.com/qsh-sh/qsh/core/store"
)

// OS is the view of shell state a builtin may touch. The shell implements
// it; tests substitute fakes.
type OS interface {
	// Getwd returns the shell's current directory.
	Getwd() string
	// PrevWd returns the previous directory for cd -.
	PrevWd() string
	// HomeDir returns the user's home directory.
	HomeDir() string
	// Chdir changes directory and rotates cwd into prev_cwd.
	Chdir(dir string) error

	Vars() *store.Variables
	Aliases() *store.Aliases
	History() *history.Ring
	Jobs() *job.Table
	Profiler() *profiler.Profiler

	// RequestExit asks the REPL to terminate after this command.
	RequestExit(status int)
	// LastStatus is the exit status of the previous command.
	LastStatus() int

	// ForegroundJob moves a job into the foreground, continuing it when
	// cont is set, and returns its status.
	ForegroundJob(j *job.Job, cont bool) int
	// ContinueJob resumes a stopped job in the background.
	ContinueJob(j *job.Job) error
	// WaitJob blocks until a background job completes.
	WaitJob(j *job.Job) int
}

// Invocation carries one builtin call: the node's argv and the streams the
// executor prepared from the node's redirections.
type Invocation struct {
	OS     OS
	Argv   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Func is a builtin entry point; the return value becomes the command's
// exit status.
type Func func(inv *Invocation) int

// Info describes a registered builtin for the help listing.
type Info struct {
	Name string
	Help string
}

type registration struct {
	help string
	fn   Func
}

var registry = make(map[string]registration)

func register(name, help string, fn Func) {
	registry[name] = registration{help: help, fn: fn}
}

// Lookup resolves a builtin by command name.
func Lookup(name string) (Func, bool) {
	r, ok := registry[name]
	return r.fn, ok
}

// List returns every builtin sorted by name.
func List() []Info {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Info, 0, len(names))
	for _, name := range names {
		out = append(out, Info{Name: name, Help: registry[name].help})
	}
	return out
}

// SimpleCommand wraps a builtin with getopt flag parsing and a standard
// help flag.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not. If this is non-nil
	// when Run() is called, then the default help flag isn't added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}
	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses the invocation's flags and calls the callback on success.
func (s *SimpleCommand) Run(inv *Invocation, callback func() int) int {
	opts := s.Flags()

	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(inv.Argv, nil); err != nil {
		fmt.Fprintf(inv.Stderr, "error: %s\n\n", err)
		s.PrintHelp(inv.Stdout)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(inv.Stdout)
		return 0
	}

	return callback()
}
