// Package system provides internal file-system utilities for appfinish.
package system

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CopyFile copies a file from src to dst, replacing dst if it exists.
// The copy keeps the source's permission bits so executables stay
// executable. On APFS volumes the data is cloned instead of copied.
func CopyFile(src, dst string) error {
	if src == "" {
		return fmt.Errorf("source file path cannot be empty")
	}
	if dst == "" {
		return fmt.Errorf("destination file path cannot be empty")
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to get source file info: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source %s is not a regular file", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if cloned, err := cloneFile(src, dst); err != nil {
		return fmt.Errorf("failed to clone %s: %w", src, err)
	} else if cloned {
		return nil
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	// OpenFile does not touch the mode of an existing file.
	if err := dstFile.Chmod(srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	return dstFile.Close()
}

// SafeWriteFile writes data to a file safely by writing to a temporary file first,
// then moving it to the final location. This prevents partial writes in case of errors.
// An existing file is replaced, never appended to.
func SafeWriteFile(filename string, data []byte, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}

	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set temporary file permissions: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpName, filename); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move temporary file to final location: %w", err)
	}

	return nil
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// DiskUsage returns the total size in bytes of the regular files under path.
// Unreadable entries are skipped.
func DiskUsage(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// Within reports whether target lies inside root after cleaning both.
func Within(root, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// BundleContentsPath constructs the path to the Contents directory in an app bundle.
func BundleContentsPath(bundlePath string) string {
	return filepath.Join(bundlePath, "Contents")
}

// BundleResourcesPath constructs the path to the Resources directory in an app bundle.
// This is the resource directory the finishing pass works on.
func BundleResourcesPath(bundlePath string) string {
	return filepath.Join(bundlePath, "Contents", "Resources")
}

// BundleInfoPlistPath constructs the path to the Info.plist in an app bundle.
func BundleInfoPlistPath(bundlePath string) string {
	return filepath.Join(bundlePath, "Contents", "Info.plist")
}

// IsAppBundle checks if the given path appears to be an app bundle.
func IsAppBundle(path string) bool {
	if !strings.HasSuffix(filepath.Clean(path), ".app") {
		return false
	}
	return DirExists(BundleContentsPath(path))
}
