package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned when PEM, key type or secret is invalid.
var ErrInvalidKey = errors.New("invalid key")

// KeySet is the process-wide signing material: one algorithm, one signing key,
// one verification key. Rotating it invalidates every outstanding token.
type KeySet struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// LoadKeySet builds a KeySet for alg. HS256/HS384/HS512 use secret; RS256 and
// ES256 use the PEM key pair (inline PEM or file path).
func LoadKeySet(alg, secret, privatePEM, publicPEM string) (*KeySet, error) {
	switch alg {
	case "HS256", "HS384", "HS512":
		return NewHMACKeySet(alg, []byte(secret))
	case "RS256", "ES256":
		return NewAsymmetricKeySet(alg, privatePEM, publicPEM)
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidKey, alg)
	}
}

// NewHMACKeySet returns a KeySet signing with the shared secret.
func NewHMACKeySet(alg string, secret []byte) (*KeySet, error) {
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an HMAC algorithm", ErrInvalidKey, alg)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}
	return &KeySet{method: method, signKey: secret, verifyKey: secret}, nil
}

// NewAsymmetricKeySet returns a KeySet signing with the private key and
// verifying with the public key. The key type must match alg.
func NewAsymmetricKeySet(alg, privatePEM, publicPEM string) (*KeySet, error) {
	signer, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKey(publicPEM)
	if err != nil {
		return nil, err
	}
	if KeyAlg(pub) != alg || KeyAlg(signer.Public()) != alg {
		return nil, fmt.Errorf("%w: key type does not match %s", ErrInvalidKey, alg)
	}
	return &KeySet{method: jwt.GetSigningMethod(alg), signKey: signer, verifyKey: pub}, nil
}

// Algorithm returns the JWT alg header value.
func (k *KeySet) Algorithm() string {
	return k.method.Alg()
}

// LoadPEM reads content from path if s does not look like inline PEM; otherwise returns s as bytes.
// Literal "\n" sequences in inline PEM (common in .env files) become newlines.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded private key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	block, err := decodeBlock(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	}
	return nil, ErrInvalidKey
}

// ParsePublicKey parses a PEM-encoded public key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	block, err := decodeBlock(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	}
	return nil, ErrInvalidKey
}

func decodeBlock(s string) (*pem.Block, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

// KeyAlg returns "RS256" for RSA and "ES256" for ECDSA; empty otherwise.
func KeyAlg(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	}
	return ""
}
