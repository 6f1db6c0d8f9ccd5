// Package platform identifies the target the binary was built for.
package platform

import "runtime"

type Platform int

const (
	Other Platform = iota
	Windows
	MacOS
	Linux
	Android
	IOS
)

// Current reports the platform of the running binary
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

func FromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	case "linux", "freebsd", "openbsd", "netbsd":
		return Linux
	case "android":
		return Android
	case "ios":
		return IOS
	default:
		return Other
	}
}

func (p Platform) IsMobile() bool {
	return p == Android || p == IOS
}

func (p Platform) IsDesktop() bool {
	return !p.IsMobile()
}

func (p Platform) String() string {
	switch p {
	case Windows:
		return "windows"
	case MacOS:
		return "macos"
	case Linux:
		return "linux"
	case Android:
		return "android"
	case IOS:
		return "ios"
	default:
		return "other"
	}
}
