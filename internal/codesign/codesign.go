// Package codesign re-signs an app bundle after its resources were
// modified. Touching anything under Contents/Resources invalidates an
// existing signature, so the finishing pass offers to sign again.
package codesign

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tmc/appfinish/internal/system"
)

// AdHoc is the identity for ad-hoc signing.
const AdHoc = "-"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Signer wraps the codesign tool.
type Signer struct {
	// Identity is a keychain identity or AdHoc.
	Identity string
	// Identifier overrides the signing identifier. Defaults to the bundle's
	// CFBundleIdentifier.
	Identifier string
	Logger     *slog.Logger
	run        Runner
}

// New returns a Signer for identity. An empty identity means ad-hoc.
func New(identity string, logger *slog.Logger) *Signer {
	if identity == "" {
		identity = AdHoc
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{Identity: identity, Logger: logger, run: execRunner}
}

// Args returns the codesign arguments used to sign bundlePath.
func (s *Signer) Args(bundlePath string) []string {
	args := []string{"--sign", s.Identity, "--force", "--deep"}
	if s.Identity != AdHoc {
		args = append(args, "--timestamp", "--options", "runtime")
		entitlements := filepath.Join(system.BundleContentsPath(bundlePath), "entitlements.plist")
		if system.FileExists(entitlements) {
			args = append(args, "--entitlements", entitlements)
		}
	}
	if s.Identifier != "" {
		args = append(args, "--identifier", s.Identifier)
	}
	return append(args, bundlePath)
}

// Sign signs the bundle at bundlePath.
func (s *Signer) Sign(ctx context.Context, bundlePath string) error {
	if !system.IsAppBundle(bundlePath) {
		return fmt.Errorf("codesign: %s is not an app bundle", bundlePath)
	}
	args := s.Args(bundlePath)
	s.Logger.Debug("running codesign", "args", strings.Join(args, " "))

	out, err := s.run(ctx, "codesign", args...)
	if err != nil {
		return fmt.Errorf("codesign failed: %w\nOutput: %s", err, strings.TrimSpace(string(out)))
	}
	s.Logger.Info("signed bundle", "path", bundlePath, "identity", s.Identity)
	return nil
}

// Verify checks the bundle's signature.
func (s *Signer) Verify(ctx context.Context, bundlePath string) error {
	out, err := s.run(ctx, "codesign", "--verify", "--deep", "--strict", bundlePath)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w\nOutput: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// BundleFromResources returns the .app directory that owns a
// Contents/Resources directory.
func BundleFromResources(resourceDir string) (string, error) {
	abs, err := filepath.Abs(resourceDir)
	if err != nil {
		return "", err
	}
	contents := filepath.Dir(abs)
	if filepath.Base(abs) != "Resources" || filepath.Base(contents) != "Contents" {
		return "", fmt.Errorf("codesign: %s is not a bundle resource directory", resourceDir)
	}
	app := filepath.Dir(contents)
	if !system.IsAppBundle(app) {
		return "", fmt.Errorf("codesign: %s is not an app bundle", app)
	}
	return app, nil
}

// Available reports whether the codesign tool can be found.
func Available() bool {
	_, err := exec.LookPath("codesign")
	return err == nil
}
