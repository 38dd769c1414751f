package exec

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsh-sh/qsh/core/job"
	"github.com/qsh-sh/qsh/core/parse"
)

// newTestExecutor runs builtins against in-memory streams; no children are
// forked by these tests.
func newTestExecutor() (*Executor, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	e := &Executor{
		IO:   Stdio{In: strings.NewReader(""), Out: out, Err: errOut},
		Jobs: job.NewTable(),
	}
	return e, out, errOut
}

func node(argv ...string) *parse.Command {
	return &parse.Command{Name: argv[0], Argv: argv}
}

func chain(nodes []*parse.Command, ops []parse.ChainOp) *parse.Command {
	for i, n := range nodes {
		if i < len(ops) {
			n.Op = ops[i]
		}
		if i+1 < len(nodes) {
			n.Next = nodes[i+1]
		}
	}
	return nodes[0]
}

func TestRunBuiltinEcho(t *testing.T) {
	e, out, _ := newTestExecutor()

	status := e.Run(node("echo", "hello", "world"))
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", out.String())
}

func TestShortCircuitAnd(t *testing.T) {
	e, out, _ := newTestExecutor()

	status := e.Run(chain(
		[]*parse.Command{node("true"), node("echo", "ok")},
		[]parse.ChainOp{parse.OpAnd},
	))
	assert.Equal(t, 0, status)
	assert.Equal(t, "ok\n", out.String())
}

func TestShortCircuitAndStops(t *testing.T) {
	e, out, _ := newTestExecutor()

	status := e.Run(chain(
		[]*parse.Command{node("false"), node("echo", "ok")},
		[]parse.ChainOp{parse.OpAnd},
	))
	assert.Equal(t, 1, status)
	assert.Empty(t, out.String())
}

func TestShortCircuitOr(t *testing.T) {
	e, out, _ := newTestExecutor()

	status := e.Run(chain(
		[]*parse.Command{node("false"), node("echo", "ok")},
		[]parse.ChainOp{parse.OpOr},
	))
	assert.Equal(t, 0, status)
	assert.Equal(t, "ok\n", out.String())
}

func TestShortCircuitOrStops(t *testing.T) {
	e, out, _ := newTestExecutor()

	status := e.Run(chain(
		[]*parse.Command{node("true"), node("echo", "ok")},
		[]parse.ChainOp{parse.OpOr},
	))
	assert.Equal(t, 0, status)
	assert.Empty(t, out.String())
}

func TestSequentialChain(t *testing.T) {
	e, out, _ := newTestExecutor()

	status := e.Run(chain(
		[]*parse.Command{node("echo", "one"), node("echo", "two")},
		[]parse.ChainOp{parse.OpNone},
	))
	assert.Equal(t, 0, status)
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestStatusSinkSeesEveryNode(t *testing.T) {
	e, _, _ := newTestExecutor()
	var seen []int
	e.StatusSink = func(status int) { seen = append(seen, status) }

	e.Run(chain(
		[]*parse.Command{node("false"), node("true")},
		[]parse.ChainOp{parse.OpNone},
	))
	assert.Equal(t, []int{1, 0}, seen)
}

func TestCommandNotFound(t *testing.T) {
	e, _, errOut := newTestExecutor()

	status := e.Run(node("definitely-not-a-command-qsh"))
	assert.Equal(t, 127, status)
	assert.Equal(t, "definitely-not-a-command-qsh: command not found\n", errOut.String())
}

func TestBuiltinOutputRedirection(t *testing.T) {
	e, out, _ := newTestExecutor()
	target := filepath.Join(t.TempDir(), "out.txt")

	cmd := node("echo", "Hello, World!")
	cmd.Redirections = []parse.Redirection{{Kind: parse.OutFile, Target: target}}

	status := e.Run(cmd)
	assert.Equal(t, 0, status)
	assert.Empty(t, out.String())

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", string(contents))
}

func TestBuiltinAppendRedirection(t *testing.T) {
	e, _, _ := newTestExecutor()
	target := filepath.Join(t.TempDir(), "out.txt")

	for _, word := range []string{"one", "two"} {
		cmd := node("echo", word)
		cmd.Redirections = []parse.Redirection{{Kind: parse.AppendFile, Target: target}}
		require.Equal(t, 0, e.Run(cmd))
	}

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(contents))
}

func TestRedirectionCreatesParentDirs(t *testing.T) {
	e, _, _ := newTestExecutor()
	target := filepath.Join(t.TempDir(), "a", "b", "out.txt")

	cmd := node("echo", "deep")
	cmd.Redirections = []parse.Redirection{{Kind: parse.OutFile, Target: target}}
	require.Equal(t, 0, e.Run(cmd))

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "deep\n", string(contents))
}

func TestRedirectionOpenFailure(t *testing.T) {
	e, _, errOut := newTestExecutor()

	cmd := node("echo", "x")
	cmd.Redirections = []parse.Redirection{{Kind: parse.InFile, Target: "/definitely/missing/input"}}

	status := e.Run(cmd)
	assert.Equal(t, 1, status)
	assert.Contains(t, errOut.String(), "/definitely/missing/input")
}

func TestApplyErrToOut(t *testing.T) {
	e, _, _ := newTestExecutor()
	out := &bytes.Buffer{}

	stdio, cleanup, err := e.applyRedirections(
		[]parse.Redirection{{Kind: parse.ErrToOut}},
		Stdio{In: strings.NewReader(""), Out: out, Err: io.Discard},
		applyAll,
	)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, io.Writer(out), stdio.Err)
}

func TestApplyBothOut(t *testing.T) {
	e, _, _ := newTestExecutor()
	target := filepath.Join(t.TempDir(), "both.txt")

	stdio, cleanup, err := e.applyRedirections(
		[]parse.Redirection{{Kind: parse.BothOut, Target: target}},
		Stdio{In: strings.NewReader(""), Out: io.Discard, Err: io.Discard},
		applyAll,
	)
	require.NoError(t, err)

	assert.Equal(t, stdio.Out, stdio.Err)
	_, err = io.WriteString(stdio.Out, "shared\n")
	require.NoError(t, err)
	cleanup()

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "shared\n", string(contents))
}

func TestApplyInputOnlySkipsOutput(t *testing.T) {
	e, _, _ := newTestExecutor()
	out := &bytes.Buffer{}

	stdio, cleanup, err := e.applyRedirections(
		[]parse.Redirection{{Kind: parse.OutFile, Target: "/never/created"}},
		Stdio{In: strings.NewReader(""), Out: out, Err: io.Discard},
		applyInputOnly,
	)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, io.Writer(out), stdio.Out)
}

func TestHereDoc(t *testing.T) {
	e, _, _ := newTestExecutor()

	lines := []string{"first line", "second line", "EOF", "beyond"}
	e.ReadLine = func(prompt string) (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}

	stdio, cleanup, err := e.applyRedirections(
		[]parse.Redirection{{Kind: parse.HereDoc, Target: "EOF"}},
		Stdio{In: strings.NewReader(""), Out: io.Discard, Err: io.Discard},
		applyAll,
	)
	require.NoError(t, err)
	defer cleanup()

	contents, err := io.ReadAll(stdio.In)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n", string(contents))
	// The delimiter stops the spool; later lines stay unread.
	assert.Equal(t, []string{"beyond"}, lines)
}

func TestCapture(t *testing.T) {
	e, _, _ := newTestExecutor()

	out, status, err := e.Capture(node("echo", "captured"))
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "captured", out)
}

func TestCaptureStatus(t *testing.T) {
	e, _, _ := newTestExecutor()

	_, status, err := e.Capture(node("false"))
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestCaptureDiscardsStderr(t *testing.T) {
	e, _, errOut := newTestExecutor()

	out, status, err := e.Capture(node("definitely-not-a-command-qsh"))
	require.NoError(t, err)
	assert.Equal(t, 127, status)
	assert.Empty(t, out)
	assert.Empty(t, errOut.String())
}
