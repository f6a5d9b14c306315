package lfsgate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	LinkAuthScheme   = "LFS-HMAC-SHA256"
	linkSigningScope = "lfs_link"
)

// LinkSigner issues and verifies the Authorization values attached to
// transfer actions. A value authorizes one method on one object until it
// expires:
//
//	LFS-HMAC-SHA256 Expires=1700000000,Signature=<hex>
type LinkSigner struct {
	signingKey []byte
	now        func() time.Time
}

// NewLinkSigner creates a signer from a shared secret. The secret must not be empty.
func NewLinkSigner(secret string) (*LinkSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("new link signer: %w: secret cannot be empty", ErrInvalidInput)
	}
	return &LinkSigner{
		signingKey: deriveSigningKey(secret),
		now:        time.Now,
	}, nil
}

// Sign returns the Authorization value for method on the object oid of repo.
func (s *LinkSigner) Sign(method, repo, oid string, expires time.Time) string {
	sig := s.signature(method, repo, oid, expires.Unix())
	return fmt.Sprintf("%s Expires=%d,Signature=%s", LinkAuthScheme, expires.Unix(), sig)
}

// Verify checks an Authorization value produced by Sign.
//
// Returns an error wrapping ErrUnauthorized if the value is malformed,
// expired, or was issued for another method or object.
func (s *LinkSigner) Verify(method, repo, oid, header string) error {
	expires, signature, err := parseLinkAuthorization(header)
	if err != nil {
		return err
	}

	if s.now().Unix() > expires {
		return fmt.Errorf("link signature expired: %w", ErrUnauthorized)
	}

	expected := s.signature(method, repo, oid, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("link signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}

// IsLinkAuthorization reports whether header uses the link signing scheme.
func IsLinkAuthorization(header string) bool {
	return strings.HasPrefix(header, LinkAuthScheme+" ")
}

func (s *LinkSigner) signature(method, repo, oid string, expires int64) string {
	canonical := fmt.Sprintf("%s\n/%s/objects/%s", strings.ToUpper(method), repo, oid)
	stringToSign := fmt.Sprintf("%s\n%d\n%s", LinkAuthScheme, expires, sha256Hash(canonical))
	return hex.EncodeToString(hmacSHA256(s.signingKey, []byte(stringToSign)))
}

func parseLinkAuthorization(header string) (int64, string, error) {
	params, ok := strings.CutPrefix(header, LinkAuthScheme+" ")
	if !ok {
		return 0, "", fmt.Errorf("invalid link authorization scheme: %w", ErrUnauthorized)
	}

	var expiresRaw, signature string
	for part := range strings.SplitSeq(params, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, "", fmt.Errorf("invalid link authorization parameter: %w", ErrUnauthorized)
		}
		switch key {
		case "Expires":
			expiresRaw = value
		case "Signature":
			signature = value
		}
	}

	if expiresRaw == "" || signature == "" {
		return 0, "", fmt.Errorf("missing link authorization parameters: %w", ErrUnauthorized)
	}

	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil || expires <= 0 {
		return 0, "", fmt.Errorf("invalid link expiry: %w", ErrUnauthorized)
	}

	return expires, signature, nil
}

func deriveSigningKey(secret string) []byte {
	return hmacSHA256([]byte("LFS"+secret), []byte(linkSigningScope))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
