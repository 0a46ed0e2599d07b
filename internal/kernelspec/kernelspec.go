// Package kernelspec repoints the bundled Jupyter kernel descriptor at the
// bundled interpreter.
package kernelspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tmc/appfinish/internal/system"
)

// Interpreter is the launcher written into argv[0]. It is resolved through
// PATH, which the packaged app points at its own bin directory.
const Interpreter = "python"

// ErrNoArgv is returned when the descriptor has no usable argv array.
var ErrNoArgv = errors.New("kernel.json has no argv")

// Path returns the python3 kernel descriptor location under resourceDir.
func Path(resourceDir string) string {
	return filepath.Join(resourceDir, "share", "jupyter", "kernels", "python3", "kernel.json")
}

// Patch rewrites argv[0] of the descriptor at path to interpreter. All other
// keys and argv elements keep their original JSON values. It reports false,
// without error, when the file does not exist.
func Patch(path, interpreter string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	out, err := Rewrite(data, interpreter)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	if err := system.SafeWriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// Rewrite returns data with argv[0] replaced by interpreter.
func Rewrite(data []byte, interpreter string) ([]byte, error) {
	var spec map[string]json.RawMessage
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse kernel spec: %w", err)
	}

	raw, ok := spec["argv"]
	if !ok {
		return nil, ErrNoArgv
	}
	var argv []json.RawMessage
	if err := json.Unmarshal(raw, &argv); err != nil {
		return nil, fmt.Errorf("parse argv: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrNoArgv
	}

	first, err := json.Marshal(interpreter)
	if err != nil {
		return nil, err
	}
	argv[0] = first

	if spec["argv"], err = json.Marshal(argv); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encode kernel spec: %w", err)
	}
	return buf.Bytes(), nil
}
