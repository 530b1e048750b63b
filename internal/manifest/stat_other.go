//go:build !unix

package manifest

import "io/fs"

// Without raw stat data the sector count is estimated from the logical
// size, so sparse files report their full logical extent.
func blocks(info fs.FileInfo) int64 {
	return (info.Size() + 511) / 512
}

// device is unavailable on this platform, which disables the filesystem
// boundary check during walks.
func device(info fs.FileInfo) (uint64, bool) {
	return 0, false
}
