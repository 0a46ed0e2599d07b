package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmc/appfinish"
	"github.com/tmc/appfinish/internal/system"
)

// clearEnv unsets every APPFINISH_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range system.AllEnvVars() {
		t.Setenv(key, "")
	}
}

func writeMetadata(t *testing.T, env, src string) {
	t.Helper()
	dir := filepath.Join(env, "lib", "python3.11", "site-packages", "libopensesame")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.py"), []byte(src), 0644))
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	logger, buf := testLogger()

	s, err := Load(Options{Dir: t.TempDir(), Logger: logger})
	require.NoError(t, err)

	// The default environment path does not exist here.
	assert.Equal(t, appfinish.DefaultVersion, s.Version)
	assert.Equal(t, appfinish.DefaultVersion, s.LongVersion)
	assert.Equal(t, "opensesame_3.3.10-py37-macos-x64-1.dmg", s.DMGFile())
	assert.Contains(t, buf.String(), "could not read version metadata")
}

func TestLoadScrapesVersion(t *testing.T) {
	clearEnv(t)
	env := t.TempDir()
	writeMetadata(t, env, "__version__ = u'4.0.1'\ncodename = u'Pretest'\n")
	t.Setenv(system.EnvCondaEnv, env)

	logger, buf := testLogger()
	s, err := Load(Options{Dir: t.TempDir(), Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, "4.0.1", s.Version)
	assert.Equal(t, "4.0.1 Pretest", s.LongVersion)
	assert.Equal(t, "opensesame_4.0.1-py37-macos-x64-1.dmg", s.DMGFile())
	assert.Contains(t, buf.String(), "4.0.1 Pretest")
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yamlData := `
app_name: Rapunzel
identifier: nl.cogsci.rapunzel
entry_script: rapunzel
version: "1.2.0"
exclude_files:
  - include
dmg:
  file_template: "rapunzel_{version}.dmg"
  format: ULFO
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yamlData), 0644))
	t.Setenv(system.EnvEntryScript, "rapunzel-cli")

	s, err := Load(Options{Dir: dir, SkipVersionScrape: true, Logger: slog.Default()})
	require.NoError(t, err)

	assert.Equal(t, "Rapunzel", s.AppName)
	assert.Equal(t, "nl.cogsci.rapunzel", s.Identifier)
	assert.Equal(t, "rapunzel-cli", s.EntryScript)
	assert.Equal(t, "1.2.0", s.Version)
	assert.Equal(t, "1.2.0", s.LongVersion)
	assert.Equal(t, []string{"include"}, s.ExcludeFiles)
	assert.Equal(t, "rapunzel_1.2.0.dmg", s.DMGFile())
	assert.Equal(t, "ULFO", s.DMG.Format)
	// Unset keys keep their defaults.
	assert.Equal(t, 80, s.DMG.IconSize)
	assert.Equal(t, "3.11", s.PythonVersion)
	// File associations follow the identifier.
	assert.Equal(t, "nl.cogsci.rapunzel.osexp", s.SupportedFiles.ExportedTypes[0].Identifier)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APPFINISH_RESOURCE_DIR=/tmp/OpenSesame.app/Contents/Resources\n"), 0644))
	// godotenv does not override variables that are already set, and
	// clearEnv leaves them set to the empty string.
	require.NoError(t, os.Unsetenv(system.EnvResourceDir))
	t.Cleanup(func() { _ = os.Unsetenv(system.EnvResourceDir) })

	s, err := Load(Options{Dir: dir, SkipVersionScrape: true})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/OpenSesame.app/Contents/Resources", s.ResourceDir)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	t.Run("explicit file missing", func(t *testing.T) {
		_, err := Load(Options{Path: filepath.Join(t.TempDir(), "missing.yaml"), SkipVersionScrape: true})
		assert.ErrorContains(t, err, "failed to read missing.yaml")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("app_name: [unterminated"), 0644))
		_, err := Load(Options{Dir: dir, SkipVersionScrape: true})
		assert.ErrorContains(t, err, "failed to parse appfinish.yaml")
	})

	t.Run("invalid identifier", func(t *testing.T) {
		t.Setenv(system.EnvIdentifier, "not an identifier")
		_, err := Load(Options{Dir: t.TempDir(), SkipVersionScrape: true})
		assert.ErrorContains(t, err, "identifier")
	})
}
