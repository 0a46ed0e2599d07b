package system

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// cloneFile creates dst as an APFS copy-on-write clone of src.
// It reports false when the volume cannot clone, so the caller falls back
// to a byte copy.
func cloneFile(src, dst string) (bool, error) {
	// clonefile(2) refuses to replace an existing destination.
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := unix.Clonefile(src, dst, unix.CLONE_NOFOLLOW); err != nil {
		return false, nil
	}
	return true, nil
}
