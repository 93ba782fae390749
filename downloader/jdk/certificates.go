// Package jdk post-processes freshly installed Java runtimes.
package jdk

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"

	"jvmget/config"
	"jvmget/locator"
	"jvmget/logging"
	"jvmget/repository"
)

// BackupSuffix is appended to the untouched copy of a keystore
const BackupSuffix = ".original"

// Injector adds configured PEM certificates to a runtime's cacerts keystore
type Injector struct {
	certs    []config.CertificateEntry
	password string
	override string
}

// NewInjector creates an Injector. override is a cacerts path relative to
// the runtime root; leave it empty to detect the keystore.
func NewInjector(certs []config.CertificateEntry, password, override string) *Injector {
	return &Injector{certs: certs, password: password, override: override}
}

// PostInstall injects the certificates into the runtime at rec.Path
func (in *Injector) PostInstall(ctx context.Context, rec locator.Record, rel repository.Release) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := in.Inject(rec.Path)
	return err
}

// Inject adds every configured certificate to the keystore of the runtime
// installed at root and returns how many were added. The original keystore
// is kept next to it with the .original suffix.
func (in *Injector) Inject(root string) (int, error) {
	if len(in.certs) == 0 {
		logging.LogDebug("📋 No custom certificates configured, skipping certificate injection")
		return 0, nil
	}

	logging.LogInfo("🔐 Injecting %d certificate(s) into %s", len(in.certs), root)
	cacerts, err := FindCacerts(root, in.override)
	if err != nil {
		return 0, err
	}
	if format, err := DetectFormat(cacerts); err == nil {
		logging.LogDebug("📦 Keystore format: %s", format)
	}

	backup := cacerts + BackupSuffix
	if err := copyIfMissing(cacerts, backup); err != nil {
		return 0, fmt.Errorf("failed to backup cacerts: %w", err)
	}

	ks, password, err := loadKeystore(cacerts, in.password)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, entry := range in.certs {
		if err := addCertificate(ks, entry); err != nil {
			logging.LogWarn("⚠️  Skipping certificate %s: %v", entry.Path, err)
			continue
		}
		added++
	}
	if added == 0 {
		return 0, errors.New("no certificates were added")
	}

	if err := storeKeystore(ks, cacerts, password); err != nil {
		if restoreErr := copyFile(backup, cacerts); restoreErr != nil {
			logging.LogWarn("⚠️  Failed to restore %s: %v", cacerts, restoreErr)
		}
		return 0, err
	}

	logging.LogInfo("✅ Added %d certificate(s) to %s", added, cacerts)
	return added, nil
}

// loadKeystore opens path with password, then with an empty password for
// password-less PKCS12 stores. It returns the password that worked.
func loadKeystore(path, password string) (keystore.KeyStore, []byte, error) {
	candidates := [][]byte{[]byte(password)}
	if password != "" {
		candidates = append(candidates, []byte{})
	}

	var lastErr error
	for _, pw := range candidates {
		f, err := os.Open(path)
		if err != nil {
			return keystore.KeyStore{}, nil, fmt.Errorf("failed to open keystore: %w", err)
		}
		ks := keystore.New()
		lastErr = ks.Load(f, pw)
		f.Close()
		if lastErr == nil {
			return ks, pw, nil
		}
	}
	return keystore.KeyStore{}, nil, fmt.Errorf("failed to load keystore %s: %w", path, lastErr)
}

func storeKeystore(ks keystore.KeyStore, path string, password []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create keystore file: %w", err)
	}
	defer f.Close()

	if err := ks.Store(f, password); err != nil {
		return fmt.Errorf("failed to encode keystore: %w", err)
	}
	return nil
}

func addCertificate(ks keystore.KeyStore, entry config.CertificateEntry) error {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to read certificate file: %w", err)
	}
	cert, err := parsePEMCertificate(data)
	if err != nil {
		return err
	}
	return ks.SetTrustedCertificateEntry(entry.Alias, keystore.TrustedCertificateEntry{
		CreationTime: time.Now(),
		Certificate: keystore.Certificate{
			Type:    "X.509",
			Content: cert.Raw,
		},
	})
}

func parsePEMCertificate(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("PEM block is not a certificate (type: %s)", block.Type)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse X.509 certificate: %w", err)
	}
	return cert, nil
}

func copyIfMissing(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
