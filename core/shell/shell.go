// Package shell wires the stores, parser, executor, job table and
// profiler into the interactive REPL.
package shell

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/qsh-sh/qsh/builtins"
	"github.com/qsh-sh/qsh/core/config"
	"github.com/qsh-sh/qsh/core/debug"
	"github.com/qsh-sh/qsh/core/exec"
	"github.com/qsh-sh/qsh/core/history"
	"github.com/qsh-sh/qsh/core/job"
	"github.com/qsh-sh/qsh/core/parse"
	"github.com/qsh-sh/qsh/core/profiler"
	"github.com/qsh-sh/qsh/core/store"
	"github.com/qsh-sh/qsh/core/token"
)

// Shell is the process-wide shell context threaded through the tokenizer,
// parser and executor.
type Shell struct {
	cfg      *config.Config
	vars     *store.Variables
	aliases  *store.Aliases
	history  *history.Ring
	jobs     *job.Table
	prof     *profiler.Profiler
	executor *exec.Executor
	term     *Terminal

	cwd         string
	prevCwd     string
	lastStatus  int
	shouldExit  bool
	exitStatus  int
	interactive bool
}

// New builds a shell from the configuration. The fs parameter backs the
// history file so tests can run in memory.
func New(cfg *config.Config, fs afero.Fs) (*Shell, error) {
	debug.Init()

	s := &Shell{
		cfg:     cfg,
		vars:    store.NewVariablesFromEnviron(os.Environ()),
		aliases: store.NewAliases(),
		jobs:    job.NewTable(),
		prof:    profiler.New(),
	}

	if cwd, err := os.Getwd(); err == nil {
		s.cwd = cwd
	}

	for name, value := range cfg.Aliases {
		if err := s.aliases.Set(name, value); err != nil {
			return nil, fmt.Errorf("config alias %q: %w", name, err)
		}
	}

	s.history = history.New(fs, s.expandHome(cfg.HistoryFile))
	if err := s.history.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "qsh: %v\n", err)
	}

	s.interactive = term.IsTerminal(int(os.Stdin.Fd()))
	if s.interactive {
		t, err := NewTerminal(int(os.Stdin.Fd()))
		if err != nil {
			return nil, fmt.Errorf("claiming terminal: %w", err)
		}
		s.term = t
	}

	s.executor = &exec.Executor{
		IO:          exec.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr},
		Jobs:        s.jobs,
		OS:          s,
		Interactive: s.interactive,
		StatusSink:  func(status int) { s.lastStatus = status },
	}
	if s.term != nil {
		s.executor.Term = s.term
	}

	s.installSignalHandlers()
	return s, nil
}

// Execute runs one already-expanded logical line and returns its status.
func (s *Shell) Execute(line string) int {
	tokens, err := token.Tokenize(line, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qsh: %v\n", err)
		return s.lastStatus
	}

	chain, err := parse.Parse(tokens, s.parseOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "qsh: %v\n", err)
		return s.lastStatus
	}
	if chain == nil {
		// Assignment-only or empty line.
		return 0
	}

	return s.executor.Run(chain)
}

func (s *Shell) parseOptions() parse.Options {
	return parse.Options{
		SetVar: func(name, value string) error {
			return s.vars.Set(name, value, false)
		},
		Subshell: s.subshell,
		Home: func() (string, bool) {
			home := s.HomeDir()
			return home, home != ""
		},
	}
}

// subshell captures a command substitution: the inner text is tokenized
// and parsed recursively, then run with stdout collected.
func (s *Shell) subshell(text string) (string, int, error) {
	tokens, err := token.Tokenize(text, s)
	if err != nil {
		return "", 1, err
	}
	chain, err := parse.Parse(tokens, s.parseOptions())
	if err != nil {
		return "", 1, err
	}
	if chain == nil {
		return "", 0, nil
	}
	return s.executor.Capture(chain)
}

// expandHome rewrites a leading ~ using the shell's home directory.
func (s *Shell) expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home := s.HomeDir(); home != "" {
			return home + path[1:]
		}
	}
	return path
}

// LastStatus implements token.Environment and builtins.OS.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

// LookupVar implements token.Environment.
func (s *Shell) LookupVar(name string) (string, bool) {
	return s.vars.Get(name)
}

// LastCommand implements token.Environment.
func (s *Shell) LastCommand() (string, bool) {
	e, ok := s.history.Last()
	return e.Command, ok
}

// CommandAt implements token.Environment.
func (s *Shell) CommandAt(n int) (string, bool) {
	e, ok := s.history.At(n)
	return e.Command, ok
}

// Getwd implements builtins.OS.
func (s *Shell) Getwd() string {
	return s.cwd
}

// PrevWd implements builtins.OS.
func (s *Shell) PrevWd() string {
	return s.prevCwd
}

// HomeDir implements builtins.OS.
func (s *Shell) HomeDir() string {
	if home, ok := s.vars.Get("HOME"); ok && home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// Chdir implements builtins.OS, rotating cwd into prev_cwd.
func (s *Shell) Chdir(dir string) error {
	if err := os.Chdir(dir); err != nil {
		return err
	}
	s.prevCwd = s.cwd
	if cwd, err := os.Getwd(); err == nil {
		s.cwd = cwd
	} else {
		s.cwd = dir
	}
	return nil
}

// Vars implements builtins.OS.
func (s *Shell) Vars() *store.Variables { return s.vars }

// Aliases implements builtins.OS.
func (s *Shell) Aliases() *store.Aliases { return s.aliases }

// History implements builtins.OS.
func (s *Shell) History() *history.Ring { return s.history }

// Jobs implements builtins.OS.
func (s *Shell) Jobs() *job.Table { return s.jobs }

// Profiler implements builtins.OS.
func (s *Shell) Profiler() *profiler.Profiler { return s.prof }

// RequestExit implements builtins.OS.
func (s *Shell) RequestExit(status int) {
	s.shouldExit = true
	s.exitStatus = status
}

// ExitStatus is the status requested by the exit builtin.
func (s *Shell) ExitStatus() int {
	return s.exitStatus
}

// ForegroundJob implements builtins.OS.
func (s *Shell) ForegroundJob(j *job.Job, cont bool) int {
	return s.executor.WaitForJob(j, cont)
}

// ContinueJob implements builtins.OS.
func (s *Shell) ContinueJob(j *job.Job) error {
	if err := unix.Kill(-j.PGID, unix.SIGCONT); err != nil {
		return err
	}
	s.jobs.MarkContinued(j.ID)
	return nil
}

// WaitJob implements builtins.OS.
func (s *Shell) WaitJob(j *job.Job) int {
	return s.executor.WaitJob(j)
}

var _ builtins.OS = (*Shell)(nil)
var _ token.Environment = (*Shell)(nil)
