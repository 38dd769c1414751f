package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"

	"github.com/qsh-sh/qsh/core/token"
)

var bannerColor = color.New(color.FgCyan, color.Bold)

// Run drives the interactive REPL until EOF or the exit builtin.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: s.Prompt(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing line reader: %w", err)
	}
	defer rl.Close()

	s.executor.ReadLine = func(prompt string) (string, error) {
		rl.SetPrompt(prompt)
		return rl.Readline()
	}

	if s.cfg.WelcomeBanner {
		s.printBanner(os.Stdout)
	}

	for !s.shouldExit {
		s.drainNotifications(os.Stdout)

		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()
		switch {
		case err == io.EOF:
			fmt.Fprintln(os.Stdout)
			s.shouldExit = true
			continue
		case err == readline.ErrInterrupt:
			continue
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line, err = s.continueLine(rl, line)
		if err != nil {
			continue
		}

		expanded := s.aliases.Expand(line)
		status := s.Execute(expanded)
		s.lastStatus = status
		s.history.Add(line, status)
	}

	if err := s.history.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "qsh: %v\n", err)
	}
	return nil
}

// continueLine keeps reading while the line ends inside an unclosed quote
// or substitution, concatenating with newlines.
func (s *Shell) continueLine(rl *readline.Instance, line string) (string, error) {
	for {
		_, err := token.Tokenize(line, s)
		var lexErr *token.LexError
		if !errors.As(err, &lexErr) || !strings.HasPrefix(lexErr.Msg, "unclosed") {
			return line, nil
		}

		rl.SetPrompt("> ")
		more, err := rl.Readline()
		if err != nil {
			// EOF mid-continuation discards the line.
			return line, err
		}
		line = line + "\n" + more
	}
}

// drainNotifications prints queued job state changes and reaps completed
// jobs, so notifications appear between commands rather than from signal
// context.
func (s *Shell) drainNotifications(w io.Writer) {
	for _, line := range s.jobs.Notifications() {
		fmt.Fprintln(w, line)
	}
	s.jobs.ReapDone()
}

// Prompt renders the configured prompt template: \u, \h and \w expand to
// the user, host and current directory.
func (s *Shell) Prompt() string {
	if s.cwd == "" {
		return "qsh$ "
	}

	prompt := s.cfg.Prompt
	if user, ok := s.vars.Get("USER"); ok {
		prompt = strings.ReplaceAll(prompt, `\u`, user)
	}
	if host, err := os.Hostname(); err == nil {
		prompt = strings.ReplaceAll(prompt, `\h`, host)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, s.cwd)
	return prompt
}

func (s *Shell) printBanner(w io.Writer) {
	fmt.Fprintln(w)
	bannerColor.Fprintln(w, "qsh - a Unix shell with syscall profiling")
	fmt.Fprintln(w, "Type 'help' for a list of built-in commands")
	fmt.Fprintln(w)
}
