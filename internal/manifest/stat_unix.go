//go:build unix

package manifest

import (
	"io/fs"
	"syscall"
)

// blocks returns the number of 512-byte sectors allocated to the file,
// falling back to an estimate from the logical size when the platform
// stat data is unavailable.
func blocks(info fs.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Blocks
	}
	return (info.Size() + 511) / 512
}

// device returns the id of the filesystem holding the file. The second
// return is false when the id cannot be determined.
func device(info fs.FileInfo) (uint64, bool) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev), true
	}
	return 0, false
}
