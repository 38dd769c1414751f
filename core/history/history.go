// Package history implements the bounded command history ring and its
// on-disk persistence.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// MaxEntries bounds the ring; the oldest entry is dropped on overflow.
const MaxEntries = 1000

// Entry is a single executed command line.
type Entry struct {
	Command    string
	Timestamp  time.Time
	ExitStatus int
}

// Ring is a FIFO-bounded history of executed commands.
type Ring struct {
	mu      sync.RWMutex
	fs      afero.Fs
	path    string
	entries []Entry
}

// New creates a history ring persisted at path on fs. Pass an empty path
// for an in-memory-only ring.
func New(fs afero.Fs, path string) *Ring {
	return &Ring{fs: fs, path: path}
}

// Add appends an executed command with its exit status. Timestamps are
// kept at second precision so a save/load cycle reproduces them exactly.
func (r *Ring) Add(command string, exitStatus int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(Entry{
		Command:    command,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		ExitStatus: exitStatus,
	})
}

func (r *Ring) add(e Entry) {
	if len(r.entries) == MaxEntries {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, e)
}

// Len reports the number of entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// At returns the entry at the given 1-based index, matching the indices the
// history listing prints.
func (r *Ring) At(n int) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n < 1 || n > len(r.entries) {
		return Entry{}, false
	}
	return r.entries[n-1], true
}

// Last returns the most recent entry.
func (r *Ring) Last() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// All returns a copy of the entries, oldest first.
func (r *Ring) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// SearchSubstring returns entries whose command contains the substring.
func (r *Ring) SearchSubstring(substring string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if strings.Contains(e.Command, substring) {
			out = append(out, e)
		}
	}
	return out
}

// SearchPattern returns entries whose command matches the glob pattern.
func (r *Ring) SearchPattern(pattern string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if ok, err := path.Match(pattern, e.Command); err == nil && ok {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops every entry.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Load replaces the ring with the persisted file contents. A missing file
// leaves the ring empty without error.
func (r *Ring) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return nil
	}
	f, err := r.fs.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading history: %w", err)
	}
	defer f.Close()

	r.entries = nil
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		r.add(entry)
	}
	return scanner.Err()
}

// Save writes the ring to the history file, one line per entry:
// "<unix_ts> <exit_status> <command>\n".
func (r *Ring) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.path == "" {
		return nil
	}
	f, err := r.fs.Create(r.path)
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range r.entries {
		fmt.Fprintf(w, "%d %d %s\n", e.Timestamp.Unix(), e.ExitStatus, e.Command)
	}
	return w.Flush()
}

// parseLine reads "<unix_ts> <exit_status> <command>". The command is
// everything after the second space, unescaped.
func parseLine(line string) (Entry, bool) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 {
		return Entry{}, false
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || ts <= 0 {
		return Entry{}, false
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Command:    fields[2],
		Timestamp:  time.Unix(ts, 0),
		ExitStatus: status,
	}, true
}

// Write prints every entry with its index, formatted local time, exit
// status and command, the format the history builtin shows.
func (r *Ring) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	writeEntries(w, r.entries, 1)
}

func writeEntries(w io.Writer, entries []Entry, firstIndex int) {
	for i, e := range entries {
		fmt.Fprintf(w, "%5d  %s  [%d]  %s\n",
			firstIndex+i,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.ExitStatus,
			e.Command)
	}
}

// WriteEntries prints a search result in the listing format, numbering from
// one.
func WriteEntries(w io.Writer, entries []Entry) {
	writeEntries(w, entries, 1)
}
