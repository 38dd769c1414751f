//go:build !linux

package profiler

import "fmt"

// SyscallName formats a syscall number; no name table is carried off
// Linux.
func SyscallName(num int) string {
	return fmt.Sprintf("syscall_%d", num)
}
