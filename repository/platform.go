package repository

import (
	"runtime"
	"strings"
)

// Platform identifies the OS and architecture a release is built for,
// using catalog (Adoptium) naming.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// CurrentPlatform returns the platform of the running process
func CurrentPlatform() Platform {
	return Platform{OS: NormalizeOS(runtime.GOOS), Arch: NormalizeArch(runtime.GOARCH)}
}

// NormalizeOS maps Go or common OS names to catalog names
func NormalizeOS(goos string) string {
	switch s := strings.ToLower(strings.TrimSpace(goos)); s {
	case "darwin", "macos", "osx":
		return "mac"
	case "win", "win32":
		return "windows"
	default:
		return s
	}
}

// NormalizeArch maps Go or common architecture names to catalog names
func NormalizeArch(goarch string) string {
	switch s := strings.ToLower(strings.TrimSpace(goarch)); s {
	case "amd64", "x86_64", "x86-64":
		return "x64"
	case "arm64":
		return "aarch64"
	case "386", "i386", "i686", "x86":
		return "x32"
	case "ppc64le":
		return "ppc64le"
	case "arm":
		return "arm"
	default:
		return s
	}
}
