//go:build linux

package store

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/tagcask/tagcask/internal/constants"
)

// applySequentialHint tells the kernel we'll read the file sequentially
// This doubles the read-ahead window for better performance
func applySequentialHint(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

// releaseCacheForLargeFile frees page cache for large files to prevent pollution
func releaseCacheForLargeFile(f *os.File, size int64) {
	if size > constants.LargeFileThreshold {
		_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
	}
}
