package system

import (
	"fmt"
	"regexp"
	"strings"
)

var bundleIDChars = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// ValidateBundleID checks if a bundle ID follows Apple's naming conventions.
func ValidateBundleID(bundleID string) error {
	if bundleID == "" {
		return fmt.Errorf("bundle ID cannot be empty")
	}

	if !strings.Contains(bundleID, ".") {
		return fmt.Errorf("bundle ID must contain at least one dot (reverse DNS format)")
	}

	if !bundleIDChars.MatchString(bundleID) {
		return fmt.Errorf("bundle ID can only contain alphanumeric characters, dots, and hyphens")
	}

	if strings.HasPrefix(bundleID, ".") || strings.HasPrefix(bundleID, "-") ||
		strings.HasSuffix(bundleID, ".") || strings.HasSuffix(bundleID, "-") {
		return fmt.Errorf("bundle ID cannot start or end with dots or hyphens")
	}

	for _, component := range strings.Split(bundleID, ".") {
		if component == "" {
			return fmt.Errorf("bundle ID cannot have empty components")
		}
		if component[0] >= '0' && component[0] <= '9' {
			return fmt.Errorf("bundle ID component cannot start with a number: %s", component)
		}
	}

	return nil
}

// DMGName replaces characters that are awkward in disk image file names.
func DMGName(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-", " ", "_")
	return replacer.Replace(name)
}
