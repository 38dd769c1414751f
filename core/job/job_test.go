package job

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAddAllocatesMonotonicIDs(t *testing.T) {
	table := NewTable()

	j1 := table.Add(100, []int{100}, "sleep 1")
	j2 := table.Add(200, []int{200, 201}, "a | b")

	assert.Equal(t, 1, j1.ID)
	assert.Equal(t, 2, j2.ID)
	assert.Equal(t, 100, j1.PID)
	assert.Equal(t, 200, j2.PID)
	assert.True(t, j1.Running)

	table.Remove(j1.ID)
	j3 := table.Add(300, []int{300}, "c")
	assert.Equal(t, 3, j3.ID)
}

func TestTableBySpec(t *testing.T) {
	table := NewTable()
	j := table.Add(100, []int{100, 101}, "a | b")

	got, err := table.BySpec("%1")
	require.NoError(t, err)
	assert.Equal(t, j, got)

	got, err = table.BySpec("101")
	require.NoError(t, err)
	assert.Equal(t, j, got)

	_, err = table.BySpec("%9")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = table.BySpec("%x")
	assert.ErrorAs(t, err, &notFound)
}

func TestTableStateTransitions(t *testing.T) {
	table := NewTable()
	j := table.Add(100, []int{100}, "sleep 9")

	table.MarkStopped(100)
	assert.False(t, j.Running)
	assert.True(t, j.Stopped)
	assert.Equal(t, "Stopped", j.StateLabel())

	table.MarkContinued(j.ID)
	assert.True(t, j.Running)
	assert.False(t, j.Stopped)
	assert.Equal(t, "Running", j.StateLabel())

	table.MarkExited(100, 3)
	assert.False(t, j.Running)
	assert.Equal(t, 3, j.Status)
	assert.Equal(t, "Done", j.StateLabel())
}

func TestTableNotifications(t *testing.T) {
	table := NewTable()
	table.Add(100, []int{100}, "sleep 9")

	assert.Empty(t, table.Notifications())

	table.MarkExited(100, 0)
	notes := table.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "[1] Done\tsleep 9", notes[0])

	// Draining clears the queue.
	assert.Empty(t, table.Notifications())
}

func TestTableReapDone(t *testing.T) {
	table := NewTable()
	table.Add(100, []int{100}, "done-job")
	keep := table.Add(200, []int{200}, "live-job")

	table.MarkExited(100, 0)
	reaped := table.ReapDone()
	require.Len(t, reaped, 1)
	assert.Equal(t, "done-job", reaped[0].Cmd)

	left := table.Jobs()
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)
}

func TestTableWriteFormat(t *testing.T) {
	table := NewTable()
	table.Add(100, []int{100}, "sleep 100 &")
	table.Add(200, []int{200}, "vim notes")
	table.MarkStopped(200)

	var buf bytes.Buffer
	table.Write(&buf)

	assert.Equal(t,
		"[1] Running\tsleep 100 &\n"+
			"[2] Stopped\tvim notes\n",
		buf.String())
}

func TestNotFoundErrorIs(t *testing.T) {
	err := &NotFoundError{Spec: "%3"}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "%3: job not found", err.Error())
}
