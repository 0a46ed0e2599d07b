// Package qtconf writes the qt.conf files that make a bundled Qt find its
// binaries, libraries, plugins and translations relative to the bundle
// instead of the absolute prefix it was built with.
package qtconf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/appfinish/internal/system"
)

// Entry is a single key in the [Paths] group.
type Entry struct {
	Key   string
	Value string
}

// File is a qt.conf file at a fixed location under the resource directory.
type File struct {
	// Rel is the path relative to the resource directory.
	Rel   string
	Paths []Entry
}

// Main is read by every Qt binary in bin. Prefix is relative to the
// directory holding qt.conf.
var Main = File{
	Rel: filepath.Join("bin", "qt.conf"),
	Paths: []Entry{
		{"Prefix", ".."},
		{"Binaries", "bin"},
		{"Libraries", "lib"},
		{"Headers", "include/qt"},
		{"Plugins", "plugins"},
		{"Translations", "translations"},
	},
}

// WebEngine is read by QtWebEngineProcess, which ignores bin/qt.conf.
var WebEngine = File{
	Rel: filepath.Join("libexec", "qt.conf"),
	Paths: []Entry{
		{"Prefix", ".."},
		{"Translations", "translations"},
	},
}

// Files returns the qt.conf files in the order they are written.
func Files() []File {
	return []File{Main, WebEngine}
}

// Render returns the file contents.
func (f File) Render() []byte {
	var b strings.Builder
	b.WriteString("[Paths]\n")
	for _, e := range f.Paths {
		fmt.Fprintf(&b, "%s = %s\n", e.Key, e.Value)
	}
	return []byte(b.String())
}

// Write writes f under resourceDir, replacing whatever is there.
// It returns the path written.
func (f File) Write(resourceDir string) (string, error) {
	path := filepath.Join(resourceDir, f.Rel)
	if err := system.SafeWriteFile(path, f.Render(), 0644); err != nil {
		return path, fmt.Errorf("write %s: %w", f.Rel, err)
	}
	return path, nil
}

// WriteAll writes every qt.conf file and stops at the first failure.
func WriteAll(resourceDir string) ([]string, error) {
	var written []string
	for _, f := range Files() {
		path, err := f.Write(resourceDir)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
