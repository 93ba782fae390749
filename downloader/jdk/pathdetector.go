package jdk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jvmget/logging"
)

// KeystoreFormat is the on-disk encoding of a cacerts file
type KeystoreFormat string

const (
	FormatJKS    KeystoreFormat = "JKS"
	FormatPKCS12 KeystoreFormat = "PKCS12"
)

// cacertsLocations are tried in order, relative to the runtime root.
// Java 8 keeps its keystore under jre/, macOS archives under Contents/Home.
var cacertsLocations = [][]string{
	{"lib", "security", "cacerts"},
	{"jre", "lib", "security", "cacerts"},
	{"Contents", "Home", "lib", "security", "cacerts"},
	{"Contents", "Home", "jre", "lib", "security", "cacerts"},
}

// FindCacerts returns the keystore of the runtime installed at root. A
// non-empty override, relative to root, is tried before the known locations.
func FindCacerts(root, override string) (string, error) {
	var tried []string
	if override != "" {
		candidate := filepath.Join(root, override)
		if isFile(candidate) {
			return candidate, nil
		}
		logging.LogDebug("⚠️  Configured cacerts path not found: %s", candidate)
		tried = append(tried, candidate)
	}

	for _, parts := range cacertsLocations {
		candidate := filepath.Join(append([]string{root}, parts...)...)
		if isFile(candidate) {
			logging.LogDebug("✅ Detected cacerts at: %s", candidate)
			return candidate, nil
		}
		tried = append(tried, candidate)
	}

	return "", fmt.Errorf("cacerts file not found in %s, tried:\n  - %s", root, strings.Join(tried, "\n  - "))
}

// DetectFormat reads the magic bytes of a keystore
func DetectFormat(path string) (KeystoreFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open cacerts: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.Read(magic); err != nil {
		return "", fmt.Errorf("failed to read keystore magic bytes: %w", err)
	}

	switch {
	case magic[0] == 0xFE && magic[1] == 0xED && magic[2] == 0xFE && magic[3] == 0xED:
		return FormatJKS, nil
	case magic[0] == 0x30: // ASN.1 SEQUENCE
		return FormatPKCS12, nil
	}
	return "", fmt.Errorf("unknown keystore format (magic bytes: % x)", magic)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
