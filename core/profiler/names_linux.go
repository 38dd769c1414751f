//go:build linux

package profiler

import "fmt"

// SyscallName resolves a syscall number to its name, or "syscall_N" for
// numbers outside the table.
func SyscallName(num int) string {
	if num >= 0 && num < len(syscallNames) {
		return syscallNames[num]
	}
	return fmt.Sprintf("syscall_%d", num)
}
