package system

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()

	srcPath := filepath.Join(tmpDir, "opensesame")
	srcContent := []byte("#!/usr/bin/env python\nfrom libqtopensesame import __main__\n")
	if err := os.WriteFile(srcPath, srcContent, 0755); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	stale := filepath.Join(tmpDir, "stale.py")
	if err := os.WriteFile(stale, []byte(strings.Repeat("old content ", 100)), 0600); err != nil {
		t.Fatalf("Failed to create stale file: %v", err)
	}

	tests := []struct {
		name    string
		src     string
		dst     string
		wantErr bool
		errMsg  string
	}{
		{
			name: "successful copy",
			src:  srcPath,
			dst:  filepath.Join(tmpDir, "opensesame.py"),
		},
		{
			name: "copy to subdirectory",
			src:  srcPath,
			dst:  filepath.Join(tmpDir, "subdir", "opensesame.py"),
		},
		{
			name: "replace existing longer file",
			src:  srcPath,
			dst:  stale,
		},
		{
			name:    "empty source path",
			src:     "",
			dst:     filepath.Join(tmpDir, "dest.txt"),
			wantErr: true,
			errMsg:  "source file path cannot be empty",
		},
		{
			name:    "empty destination path",
			src:     srcPath,
			dst:     "",
			wantErr: true,
			errMsg:  "destination file path cannot be empty",
		},
		{
			name:    "non-existent source",
			src:     filepath.Join(tmpDir, "nonexistent"),
			dst:     filepath.Join(tmpDir, "dest.txt"),
			wantErr: true,
			errMsg:  "failed to open source file",
		},
		{
			name:    "directory source",
			src:     tmpDir,
			dst:     filepath.Join(tmpDir, "dir.txt"),
			wantErr: true,
			errMsg:  "not a regular file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CopyFile(tt.src, tt.dst)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("CopyFile() expected error but got none")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("CopyFile() error = %v, want to contain %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("CopyFile() error = %v, want nil", err)
			}

			dstContent, err := os.ReadFile(tt.dst)
			if err != nil {
				t.Fatalf("Failed to read destination file: %v", err)
			}
			if string(dstContent) != string(srcContent) {
				t.Errorf("File content mismatch: got %q, want %q", dstContent, srcContent)
			}

			srcInfo, err := os.Stat(tt.src)
			if err != nil {
				t.Fatalf("Failed to get source file info: %v", err)
			}
			dstInfo, err := os.Stat(tt.dst)
			if err != nil {
				t.Fatalf("Failed to get destination file info: %v", err)
			}
			if srcInfo.Mode().Perm() != dstInfo.Mode().Perm() {
				t.Errorf("File permissions not preserved: got %v, want %v", dstInfo.Mode().Perm(), srcInfo.Mode().Perm())
			}
		})
	}
}

func TestSafeWriteFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
		perm     os.FileMode
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "successful write",
			filename: filepath.Join(tmpDir, "qt.conf"),
			data:     []byte("[Paths]\n"),
			perm:     0644,
		},
		{
			name:     "write to subdirectory",
			filename: filepath.Join(tmpDir, "libexec", "qt.conf"),
			data:     []byte("[Paths]\n"),
			perm:     0644,
		},
		{
			name:     "overwrite with shorter content",
			filename: filepath.Join(tmpDir, "qt.conf"),
			data:     []byte("x"),
			perm:     0644,
		},
		{
			name:     "empty filename",
			filename: "",
			data:     []byte("test content"),
			perm:     0644,
			wantErr:  true,
			errMsg:   "filename cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeWriteFile(tt.filename, tt.data, tt.perm)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("SafeWriteFile() expected error but got none")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("SafeWriteFile() error = %v, want to contain %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeWriteFile() error = %v, want nil", err)
			}

			content, err := os.ReadFile(tt.filename)
			if err != nil {
				t.Fatalf("Failed to read written file: %v", err)
			}
			if string(content) != string(tt.data) {
				t.Errorf("File content mismatch: got %q, want %q", content, tt.data)
			}

			info, err := os.Stat(tt.filename)
			if err != nil {
				t.Fatalf("Failed to get file info: %v", err)
			}
			if info.Mode() != tt.perm {
				t.Errorf("File permissions mismatch: got %v, want %v", info.Mode(), tt.perm)
			}
		})
	}

	// No temporary files may be left behind.
	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.tmp*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestFileAndDirExists(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	testDir := filepath.Join(tmpDir, "testdir")
	if err := os.Mkdir(testDir, 0755); err != nil {
		t.Fatalf("Failed to create test directory: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		wantFile bool
		wantDir  bool
	}{
		{name: "existing file", path: testFile, wantFile: true},
		{name: "existing directory", path: testDir, wantDir: true},
		{name: "non-existent path", path: filepath.Join(tmpDir, "nonexistent")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileExists(tt.path); got != tt.wantFile {
				t.Errorf("FileExists() = %v, want %v", got, tt.wantFile)
			}
			if got := DirExists(tt.path); got != tt.wantDir {
				t.Errorf("DirExists() = %v, want %v", got, tt.wantDir)
			}
		})
	}
}

func TestDiskUsage(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "a", "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "a", "one"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "a", "b", "two"), make([]byte, 28), 0644); err != nil {
		t.Fatal(err)
	}

	if got := DiskUsage(tmpDir); got != 128 {
		t.Errorf("DiskUsage() = %d, want 128", got)
	}
	if got := DiskUsage(filepath.Join(tmpDir, "missing")); got != 0 {
		t.Errorf("DiskUsage(missing) = %d, want 0", got)
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, target string
		want         bool
	}{
		{"/res", "/res/translations", true},
		{"/res", "/res/bin/../lib", true},
		{"/res", "/res", false},
		{"/res", "/res/..", false},
		{"/res", "/resources", false},
		{"/res", "/res/../etc", false},
	}
	for _, tt := range tests {
		if got := Within(tt.root, tt.target); got != tt.want {
			t.Errorf("Within(%q, %q) = %v, want %v", tt.root, tt.target, got, tt.want)
		}
	}
}

func TestBundlePaths(t *testing.T) {
	bundlePath := "/path/to/OpenSesame.app"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BundleContentsPath", BundleContentsPath(bundlePath), "/path/to/OpenSesame.app/Contents"},
		{"BundleResourcesPath", BundleResourcesPath(bundlePath), "/path/to/OpenSesame.app/Contents/Resources"},
		{"BundleInfoPlistPath", BundleInfoPlistPath(bundlePath), "/path/to/OpenSesame.app/Contents/Info.plist"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestIsAppBundle(t *testing.T) {
	tmpDir := t.TempDir()

	appBundlePath := filepath.Join(tmpDir, "Test.app")
	if err := os.MkdirAll(filepath.Join(appBundlePath, "Contents"), 0755); err != nil {
		t.Fatalf("Failed to create app bundle structure: %v", err)
	}

	// .app directory without Contents
	fakeAppPath := filepath.Join(tmpDir, "Fake.app")
	if err := os.Mkdir(fakeAppPath, 0755); err != nil {
		t.Fatalf("Failed to create fake app bundle: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "valid app bundle", path: appBundlePath, want: true},
		{name: "trailing slash", path: appBundlePath + "/", want: true},
		{name: "fake app bundle", path: fakeAppPath, want: false},
		{name: "regular directory", path: tmpDir, want: false},
		{name: "non-existent path", path: filepath.Join(tmpDir, "nonexistent.app"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAppBundle(tt.path); got != tt.want {
				t.Errorf("IsAppBundle() = %v, want %v", got, tt.want)
			}
		})
	}
}
