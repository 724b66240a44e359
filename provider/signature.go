package provider

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// HashAlgorithm names the digest function of a signature scheme.
type HashAlgorithm string

const (
	SHA1   HashAlgorithm = "sha1"
	SHA256 HashAlgorithm = "sha256"
	SHA512 HashAlgorithm = "sha512"
)

// Encoding names the textual encoding of a digest.
type Encoding string

const (
	Hex    Encoding = "hex"
	Base64 Encoding = "base64"
)

// SecretPlacement says where the secret enters the digest.
type SecretPlacement string

const (
	// SecretSuffix appends the secret after the last field
	SecretSuffix SecretPlacement = "suffix"
	// SecretPrefix prepends the secret before the first field
	SecretPrefix SecretPlacement = "prefix"
	// SecretHMACKey uses the secret as an HMAC key
	SecretHMACKey SecretPlacement = "hmac"
)

// SignatureScheme describes one provider's digest contract.
type SignatureScheme struct {
	Algorithm HashAlgorithm
	Encoding  Encoding
	Placement SecretPlacement
	Delimiter string
}

func (s SignatureScheme) newHash() (func() hash.Hash, error) {
	switch s.Algorithm {
	case SHA1:
		return sha1.New, nil
	case SHA256, "":
		return sha256.New, nil
	case SHA512:
		return sha512.New, nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported hash algorithm %q", s.Algorithm)}
	}
}

// Sign computes the digest of fields, concatenated in order, under secret.
// Fields must already be formatted to their exact wire representation.
func Sign(scheme SignatureScheme, fields []string, secret string) (string, error) {
	if secret == "" {
		return "", &ConfigurationError{Reason: "signature secret is empty"}
	}

	newHash, err := scheme.newHash()
	if err != nil {
		return "", err
	}

	payload := strings.Join(fields, scheme.Delimiter)

	var h hash.Hash
	switch scheme.Placement {
	case SecretHMACKey:
		h = hmac.New(newHash, []byte(secret))
		h.Write([]byte(payload))
	case SecretPrefix:
		h = newHash()
		h.Write([]byte(secret + scheme.Delimiter + payload))
	default:
		h = newHash()
		h.Write([]byte(payload + scheme.Delimiter + secret))
	}

	sum := h.Sum(nil)
	switch scheme.Encoding {
	case Base64:
		return base64.StdEncoding.EncodeToString(sum), nil
	case Hex, "":
		return hex.EncodeToString(sum), nil
	default:
		return "", &ConfigurationError{Reason: fmt.Sprintf("unsupported digest encoding %q", scheme.Encoding)}
	}
}

// Verify recomputes the digest and compares it with candidate in constant
// time. It never fails: malformed input simply does not verify.
func Verify(scheme SignatureScheme, fields []string, secret, candidate string) bool {
	if candidate == "" {
		return false
	}
	expected, err := Sign(scheme, fields, secret)
	if err != nil {
		return false
	}
	if scheme.Encoding != Base64 {
		candidate = strings.ToLower(candidate)
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}

// FormatMinor renders an amount in minor units, e.g. 10000 -> "10000".
func FormatMinor(amount int64) string {
	return fmt.Sprintf("%d", amount)
}

// FormatMajor renders minor units as a fixed two-decimal major amount,
// e.g. 10050 -> "100.50". No locale separators are used.
func FormatMajor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
