package finish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/tmc/appfinish/internal/system"
)

// Cleanup removes the configured directories from the resource tree.
// Every removal is attempted; failures are collected and reported as a
// recovered result.
func (p *Pass) Cleanup() StepResult {
	var targets []string
	var errs []error
	for _, dir := range p.cleanupDirs {
		target := filepath.Join(p.resourceDir, dir)
		if !system.Within(p.resourceDir, target) {
			errs = append(errs, fmt.Errorf("%s: outside the resource directory", dir))
			continue
		}
		targets = append(targets, target)
	}

	removed, removeErrs := p.removeAll(targets)
	errs = append(errs, removeErrs...)
	return removalResult(StepCleanup, removed, errs)
}

// PruneExcluded removes every path under the resource directory that
// matches one of the settings' exclusion patterns. Patterns use
// doublestar syntax and are relative to the resource directory.
func (p *Pass) PruneExcluded() StepResult {
	fsys := os.DirFS(p.resourceDir)

	seen := make(map[string]bool)
	var matches []string
	var errs []error
	for _, pattern := range p.settings.ExcludeFiles {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "/")
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithNoFollow())
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %q: %w", pattern, err))
			continue
		}
		for _, m := range found {
			if !seen[m] {
				seen[m] = true
				matches = append(matches, m)
			}
		}
	}
	if len(matches) == 0 && len(errs) == 0 {
		return skipped(StepPrune, "no excluded paths present")
	}

	// Parents sort before their children, so nested matches are
	// already gone when their turn comes.
	sort.Strings(matches)
	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		if hasRemovedParent(m, targets, p.resourceDir) {
			continue
		}
		targets = append(targets, filepath.Join(p.resourceDir, filepath.FromSlash(m)))
	}

	removed, removeErrs := p.removeAll(targets)
	errs = append(errs, removeErrs...)
	return removalResult(StepPrune, removed, errs)
}

func hasRemovedParent(match string, targets []string, root string) bool {
	for dir := path.Dir(match); dir != "." && dir != "/"; dir = path.Dir(dir) {
		full := filepath.Join(root, filepath.FromSlash(dir))
		for _, t := range targets {
			if t == full {
				return true
			}
		}
	}
	return false
}

// removeAll removes each target, logging the reclaimed size, and keeps
// going after failures. Targets that do not exist are ignored.
func (p *Pass) removeAll(targets []string) ([]string, []error) {
	var removed []string
	var errs []error
	var total int64
	for _, target := range targets {
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("nothing to remove", "path", target)
			continue
		}
		size := system.DiskUsage(target)
		if err := os.RemoveAll(target); err != nil {
			errs = append(errs, err)
			continue
		}
		total += size
		removed = append(removed, target)
		p.logger.Debug("removed", "path", target, "size", humanize.Bytes(uint64(size)))
	}
	if len(removed) > 0 {
		p.logger.Info("reclaimed space", "paths", len(removed), "size", humanize.Bytes(uint64(total)))
	}
	return removed, errs
}

func removalResult(step string, removed []string, errs []error) StepResult {
	if len(errs) > 0 {
		res := recovered(step, fmt.Sprintf("%d removal(s) failed", len(errs)), errors.Join(errs...))
		res.Paths = removed
		return res
	}
	if len(removed) == 0 {
		return skipped(step, "nothing to remove")
	}
	return ok(step, removed...)
}
