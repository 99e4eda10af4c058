package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/markawm/acme-github-issues/core"
)

const (
	HeaderSignature256 = "X-Hub-Signature-256"
	signaturePrefix    = "sha256="
)

// HMACVerifier checks the X-Hub-Signature-256 header GitHub sends when a webhook secret is set.
type HMACVerifier struct {
	Secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{Secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, req InboundRequest) error {
	if v == nil || len(v.Secret) == 0 {
		return nil
	}
	signature := headerValue(req.Headers, HeaderSignature256)
	if !strings.HasPrefix(signature, signaturePrefix) {
		return signatureError("webhooks: missing or malformed signature header")
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return signatureError("webhooks: signature is not hex encoded")
	}
	if !hmac.Equal(provided, Sign(v.Secret, req.Body)) {
		return signatureError("webhooks: signature mismatch")
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(secret []byte, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// SignatureHeader formats body's signature the way GitHub sends it.
func SignatureHeader(secret []byte, body []byte) string {
	return signaturePrefix + hex.EncodeToString(Sign(secret, body))
}

func signatureError(message string) error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.ErrorWebhookSignatureFailed)
}
