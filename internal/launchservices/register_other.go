//go:build !darwin

package launchservices

func register(appPath string) error {
	return ErrUnsupported
}

func defaultHandler(contentType string) (string, error) {
	return "", ErrUnsupported
}
