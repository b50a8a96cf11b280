package cmd

import (
	"fmt"
	"strings"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention. The usual holder is a watch session sharing the manifest.
func diagnoseDBLock(path string) string {
	return fmt.Sprintf("manifest database %s is locked by another process\n"+
		"  → a 'ramdisk watch' with the same --manifest keeps it open\n"+
		"  → find the process:  ps aux | grep 'ramdisk'\n"+
		"  → stop it or use a separate --manifest, then retry", path)
}
