package jdk

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jvmget/config"
	"jvmget/locator"
	"jvmget/repository"
)

func writeCertPEM(t *testing.T, dir, name string) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: name},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(dir, name+".pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0644))
	return path
}

func writeKeystore(t *testing.T, path, password string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, keystore.New().Store(f, []byte(password)))
}

func readKeystore(t *testing.T, path, password string) keystore.KeyStore {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	ks := keystore.New()
	require.NoError(t, ks.Load(f, []byte(password)))
	return ks
}

func TestFindCacerts(t *testing.T) {
	root := t.TempDir()

	_, err := FindCacerts(root, "")
	assert.Error(t, err)

	legacy := filepath.Join(root, "jre", "lib", "security", "cacerts")
	writeKeystore(t, legacy, "changeit")
	got, err := FindCacerts(root, "")
	require.NoError(t, err)
	assert.Equal(t, legacy, got)

	modern := filepath.Join(root, "lib", "security", "cacerts")
	writeKeystore(t, modern, "changeit")
	got, err = FindCacerts(root, "")
	require.NoError(t, err)
	assert.Equal(t, modern, got)

	custom := filepath.Join(root, "conf", "truststore")
	writeKeystore(t, custom, "changeit")
	got, err = FindCacerts(root, filepath.Join("conf", "truststore"))
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestFindCacertsMacLayout(t *testing.T) {
	root := t.TempDir()
	mac := filepath.Join(root, "Contents", "Home", "lib", "security", "cacerts")
	writeKeystore(t, mac, "changeit")

	got, err := FindCacerts(root, "")
	require.NoError(t, err)
	assert.Equal(t, mac, got)
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()
	jks := filepath.Join(dir, "cacerts")
	writeKeystore(t, jks, "changeit")

	format, err := DetectFormat(jks)
	require.NoError(t, err)
	assert.Equal(t, FormatJKS, format)

	p12 := filepath.Join(dir, "store.p12")
	require.NoError(t, os.WriteFile(p12, []byte{0x30, 0x82, 0x01, 0x00}, 0644))
	format, err = DetectFormat(p12)
	require.NoError(t, err)
	assert.Equal(t, FormatPKCS12, format)

	junk := filepath.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, []byte("PK\x03\x04"), 0644))
	_, err = DetectFormat(junk)
	assert.Error(t, err)
}

func TestInjectAddsCertificates(t *testing.T) {
	root := t.TempDir()
	certDir := t.TempDir()
	cacerts := filepath.Join(root, "lib", "security", "cacerts")
	writeKeystore(t, cacerts, "changeit")

	certs := []config.CertificateEntry{
		{Path: writeCertPEM(t, certDir, "corp"), Alias: "corp-root"},
		{Path: filepath.Join(certDir, "missing.pem"), Alias: "missing"},
	}
	in := NewInjector(certs, "changeit", "")

	added, err := in.Inject(root)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	ks := readKeystore(t, cacerts, "changeit")
	assert.True(t, ks.IsTrustedCertificateEntry("corp-root"))
	assert.False(t, ks.IsTrustedCertificateEntry("missing"))
	assert.FileExists(t, cacerts+BackupSuffix)
}

func TestInjectWithoutCertificatesIsNoop(t *testing.T) {
	added, err := NewInjector(nil, "changeit", "").Inject(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestInjectFailsWhenNothingAdded(t *testing.T) {
	root := t.TempDir()
	writeKeystore(t, filepath.Join(root, "lib", "security", "cacerts"), "changeit")

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0644))

	_, err := NewInjector([]config.CertificateEntry{{Path: bad, Alias: "bad"}}, "changeit", "").Inject(root)
	assert.Error(t, err)
}

func TestPostInstallUsesRecordPath(t *testing.T) {
	root := t.TempDir()
	cacerts := filepath.Join(root, "lib", "security", "cacerts")
	writeKeystore(t, cacerts, "changeit")
	pemPath := writeCertPEM(t, t.TempDir(), "hook")

	in := NewInjector([]config.CertificateEntry{{Path: pemPath, Alias: "hook"}}, "changeit", "")
	err := in.PostInstall(context.Background(), locator.Record{Path: root, Version: 17, Found: true}, repository.Release{FeatureVersion: 17})
	require.NoError(t, err)

	assert.True(t, readKeystore(t, cacerts, "changeit").IsTrustedCertificateEntry("hook"))
}

func TestParsePEMCertificateRejectsKeys(t *testing.T) {
	_, err := parsePEMCertificate(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}))
	assert.Error(t, err)
}
