package exec

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/qsh-sh/qsh/core/debug"
	"github.com/qsh-sh/qsh/core/job"
	"github.com/qsh-sh/qsh/core/parse"
)

// Capture runs a chain as a subshell for command substitution: stdout is
// collected to EOF, stderr is discarded, and the captured bytes are
// returned with trailing newlines stripped.
func (e *Executor) Capture(chain *parse.Command) (string, int, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return "", 1, err
	}

	sub := &Executor{
		IO:       Stdio{In: e.IO.In, Out: pw, Err: io.Discard},
		Jobs:     job.NewTable(),
		OS:       e.OS,
		ReadLine: e.ReadLine,
	}

	statusCh := make(chan int, 1)
	go func() {
		statusCh <- sub.Run(chain)
		pw.Close()
	}()

	var buf bytes.Buffer
	_, readErr := io.Copy(&buf, pr)
	pr.Close()
	status := <-statusCh
	if readErr != nil {
		return "", status, readErr
	}

	out := strings.TrimRight(buf.String(), "\n")
	debug.Logf(debug.Executor, "captured %d bytes from subshell (status %d)", buf.Len(), status)
	return out, status, nil
}
