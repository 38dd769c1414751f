package shell

import (
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal governs the controlling terminal: it records the shell's
// process group and saved modes and hands the foreground between the
// shell and child process groups.
type Terminal struct {
	fd        int
	shellPgid int
	saved     *term.State
}

// NewTerminal puts the shell into its own process group, takes control of
// the terminal and saves its modes.
func NewTerminal(fd int) (*Terminal, error) {
	saved, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}

	pid := unix.Getpid()
	if unix.Getpgrp() != pid {
		if err := unix.Setpgid(0, 0); err != nil {
			return nil, err
		}
	}

	t := &Terminal{fd: fd, shellPgid: pid, saved: saved}
	if err := t.Claim(pid); err != nil {
		return nil, err
	}
	return t, nil
}

// Claim makes pgid the terminal's foreground process group.
func (t *Terminal) Claim(pgid int) error {
	return unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid)
}

// Reclaim restores the saved terminal modes and returns the terminal to
// the shell's process group.
func (t *Terminal) Reclaim() error {
	if err := term.Restore(t.fd, t.saved); err != nil {
		return err
	}
	return t.Claim(t.shellPgid)
}

// ForegroundPgid reads the terminal's current foreground process group.
func (t *Terminal) ForegroundPgid() (int, error) {
	return unix.IoctlGetInt(t.fd, unix.TIOCGPGRP)
}
