//go:build !darwin

package system

func cloneFile(src, dst string) (bool, error) {
	return false, nil
}
