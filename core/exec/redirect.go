package exec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qsh-sh/qsh/core/parse"
)

type applyMode int

const (
	applyAll applyMode = iota
	applyInputOnly
	applyNone
)

// RedirError reports a redirection target that could not be opened. The
// message leads with the offending filename, matching the shell's output.
type RedirError struct {
	Target string
	Err    error
}

func (e *RedirError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *RedirError) Unwrap() error {
	return e.Err
}

// applyRedirections rewires a Stdio per the node's redirection list, in
// node order. The returned cleanup closes every file this call opened.
func (e *Executor) applyRedirections(redirs []parse.Redirection, stdio Stdio, mode applyMode) (Stdio, func(), error) {
	var opened []*os.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, r := range redirs {
		if mode == applyNone {
			break
		}
		input := r.Kind == parse.InFile || r.Kind == parse.HereDoc
		if mode == applyInputOnly && !input {
			continue
		}

		switch r.Kind {
		case parse.InFile:
			f, err := os.OpenFile(r.Target, os.O_RDONLY, 0)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.In = f

		case parse.OutFile:
			f, err := openTarget(r.Target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.Out = f

		case parse.AppendFile:
			f, err := openTarget(r.Target, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.Out = f

		case parse.ErrFile:
			f, err := openTarget(r.Target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.Err = f

		case parse.ErrAppendFile:
			f, err := openTarget(r.Target, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.Err = f

		case parse.ErrToOut:
			stdio.Err = stdio.Out

		case parse.BothOut:
			f, err := openTarget(r.Target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.Out = f
			stdio.Err = f

		case parse.HereDoc:
			f, err := e.spoolHereDoc(r.Target)
			if err != nil {
				cleanup()
				return stdio, nil, &RedirError{Target: r.Target, Err: err}
			}
			opened = append(opened, f)
			stdio.In = f
		}
	}

	return stdio, cleanup, nil
}

// openTarget opens an output redirection target, creating missing parent
// directories first.
func openTarget(target string, flags int) (*os.File, error) {
	if dir := filepath.Dir(target); dir != "." && dir != "/" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	return os.OpenFile(target, flags, 0o644)
}

// spoolHereDoc reads lines from the shell's input until one equals the
// delimiter verbatim, stages them into an unlinked temporary file and
// returns it positioned at the start.
func (e *Executor) spoolHereDoc(delimiter string) (*os.File, error) {
	f, err := os.CreateTemp("", "qsh-heredoc-")
	if err != nil {
		return nil, err
	}
	// Unlink immediately; the open descriptor keeps the data alive.
	os.Remove(f.Name())

	var sb strings.Builder
	for {
		line, err := e.readLine("> ")
		if err != nil {
			break
		}
		if line == delimiter {
			break
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (e *Executor) readLine(prompt string) (string, error) {
	if e.ReadLine != nil {
		return e.ReadLine(prompt)
	}
	return "", os.ErrClosed
}
