package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/internal/testsupport"
)

func TestLoadPrivateKey_SEC1AndPKCS8(t *testing.T) {
	key := testsupport.GenerateP256Key(t)

	sec1, err := LoadPrivateKey(testsupport.P256KeyPEM(t, key), "")
	if err != nil {
		t.Fatalf("load sec1: %v", err)
	}
	if !sec1.Equal(key) {
		t.Fatalf("expected sec1 key to round trip")
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	pkcs8, err := LoadPrivateKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), "")
	if err != nil {
		t.Fatalf("load pkcs8: %v", err)
	}
	if !pkcs8.Equal(key) {
		t.Fatalf("expected pkcs8 key to round trip")
	}
}

func TestLoadPrivateKey_LegacyEncrypted(t *testing.T) {
	key := testsupport.GenerateP256Key(t)
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal ec key: %v", err)
	}
	//nolint:staticcheck
	block, err := x509.EncryptPEMBlock(rand.Reader, "EC PRIVATE KEY", der, []byte("s3cret"), x509.PEMCipherAES256)
	if err != nil {
		t.Fatalf("encrypt pem: %v", err)
	}
	encrypted := pem.EncodeToMemory(block)

	loaded, err := LoadPrivateKey(encrypted, "s3cret")
	if err != nil {
		t.Fatalf("load encrypted: %v", err)
	}
	if !loaded.Equal(key) {
		t.Fatalf("expected decrypted key to match")
	}

	if _, err := LoadPrivateKey(encrypted, ""); err == nil {
		t.Fatalf("expected missing password error")
	}
	if _, err := LoadPrivateKey(encrypted, "wrong"); err == nil {
		t.Fatalf("expected wrong password error")
	}
}

func TestLoadPrivateKey_Rejects(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	rsaPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})

	cases := map[string][]byte{
		"not pem":         []byte("plain text"),
		"rsa key":         rsaPEM,
		"encrypted pkcs8": pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: []byte{1, 2, 3}}),
	}
	for name, source := range cases {
		_, err := LoadPrivateKey(source, "")
		if err == nil {
			t.Fatalf("%s: expected load error", name)
		}
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorPrivateKeyInvalid {
			t.Fatalf("%s: expected private key text code, got %v", name, err)
		}
	}
}

func TestLoadPrivateKeyFile(t *testing.T) {
	key := testsupport.GenerateP256Key(t)
	path := filepath.Join(t.TempDir(), "app.pem")
	if err := os.WriteFile(path, testsupport.P256KeyPEM(t, key), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	loaded, err := LoadPrivateKeyFile(path, "")
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if !loaded.Equal(key) {
		t.Fatalf("expected file key to match")
	}

	if _, err := LoadPrivateKeyFile(filepath.Join(t.TempDir(), "missing.pem"), ""); err == nil {
		t.Fatalf("expected missing file error")
	}
	if _, err := LoadPrivateKeyFile("", ""); err == nil {
		t.Fatalf("expected empty path error")
	}
}
