package launchservices

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

const (
	kCFStringEncodingUTF8 = 0x08000100
	kLSRolesAll           = 0xFFFFFFFF
)

var (
	fnLSRegisterURL                         func(url uintptr, update bool) int32
	fnLSCopyDefaultRoleHandlerForContentType func(contentType uintptr, role uint32) uintptr

	fnCFURLCreateFromFileSystemRepresentation func(alloc uintptr, buf *byte, length int, isDir bool) uintptr
	fnCFStringCreateWithCString              func(alloc uintptr, cstr *byte, encoding uint32) uintptr
	fnCFStringGetCString                     func(s uintptr, buf *byte, size int, encoding uint32) bool
	fnCFRelease                              func(cf uintptr)
)

var (
	loadOnce sync.Once
	loadErr  error
)

func load() error {
	loadOnce.Do(func() {
		coreServices, err := purego.Dlopen("/System/Library/Frameworks/CoreServices.framework/CoreServices", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = fmt.Errorf("load CoreServices: %w", err)
			return
		}
		coreFoundation, err := purego.Dlopen("/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = fmt.Errorf("load CoreFoundation: %w", err)
			return
		}

		purego.RegisterLibFunc(&fnLSRegisterURL, coreServices, "LSRegisterURL")
		purego.RegisterLibFunc(&fnLSCopyDefaultRoleHandlerForContentType, coreServices, "LSCopyDefaultRoleHandlerForContentType")

		purego.RegisterLibFunc(&fnCFURLCreateFromFileSystemRepresentation, coreFoundation, "CFURLCreateFromFileSystemRepresentation")
		purego.RegisterLibFunc(&fnCFStringCreateWithCString, coreFoundation, "CFStringCreateWithCString")
		purego.RegisterLibFunc(&fnCFStringGetCString, coreFoundation, "CFStringGetCString")
		purego.RegisterLibFunc(&fnCFRelease, coreFoundation, "CFRelease")
	})
	return loadErr
}

func register(appPath string) error {
	if err := load(); err != nil {
		return err
	}

	buf := []byte(appPath)
	url := fnCFURLCreateFromFileSystemRepresentation(0, &buf[0], len(buf), true)
	if url == 0 {
		return fmt.Errorf("launchservices: invalid app path: %s", appPath)
	}
	defer fnCFRelease(url)

	if status := fnLSRegisterURL(url, true); status != 0 {
		return fmt.Errorf("launchservices: LSRegisterURL %s: OSStatus %d", appPath, status)
	}
	return nil
}

func defaultHandler(contentType string) (string, error) {
	if err := load(); err != nil {
		return "", err
	}

	cstr := append([]byte(contentType), 0)
	uti := fnCFStringCreateWithCString(0, &cstr[0], kCFStringEncodingUTF8)
	if uti == 0 {
		return "", fmt.Errorf("launchservices: invalid content type %q", contentType)
	}
	defer fnCFRelease(uti)

	handler := fnLSCopyDefaultRoleHandlerForContentType(uti, kLSRolesAll)
	if handler == 0 {
		return "", fmt.Errorf("launchservices: no handler for %s", contentType)
	}
	defer fnCFRelease(handler)

	out := make([]byte, 1024)
	if !fnCFStringGetCString(handler, &out[0], len(out), kCFStringEncodingUTF8) {
		return "", fmt.Errorf("launchservices: handler for %s is not representable", contentType)
	}
	if n := bytes.IndexByte(out, 0); n >= 0 {
		out = out[:n]
	}
	return string(out), nil
}
