package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/markawm/acme-github-issues/core"
)

const pemEncryptedPKCS8 = "ENCRYPTED PRIVATE KEY"

// LoadPrivateKeyFile reads a PEM file and parses it with LoadPrivateKey.
func LoadPrivateKeyFile(path string, password string) (*ecdsa.PrivateKey, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, core.NewKeyLoadError(nil, "auth: private key path is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewKeyLoadError(err, "auth: read private key file")
	}
	return LoadPrivateKey(raw, password)
}

// LoadPrivateKey accepts SEC1 ("EC PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks,
// optionally wrapped in legacy RFC 1423 password encryption.
func LoadPrivateKey(source []byte, password string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(source)
	if block == nil {
		return nil, core.NewKeyLoadError(nil, "auth: no PEM block found in private key")
	}
	if block.Type == pemEncryptedPKCS8 {
		return nil, core.NewKeyLoadError(nil, "auth: encrypted PKCS#8 keys are not supported, convert with openssl ec")
	}

	//nolint:staticcheck // legacy PEM encryption is the only password format the platform issues.
	if x509.IsEncryptedPEMBlock(block) {
		if password == "" {
			return nil, core.NewKeyLoadError(nil, "auth: private key is encrypted and no password was given")
		}
		//nolint:staticcheck
		der, err := x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, core.NewKeyLoadError(err, "auth: decrypt private key")
		}
		block = &pem.Block{Type: block.Type, Bytes: der}
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pem.EncodeToMemory(block))
	if err != nil {
		return nil, core.NewKeyLoadError(err, "auth: parse EC private key")
	}
	return key, nil
}
