// Package keygen generates RSA key pairs for testing, encoded the way
// S3 workshop exercises expect them: base64 of the X.509 public key and
// of the PKCS#8 private key.
package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

const (
	DefaultBits = 1024
	MinBits     = 1024
)

var (
	// ErrProviderUnavailable is returned when no key could be generated.
	ErrProviderUnavailable = errors.New("key generation provider unavailable")
	// ErrEncoding is returned when a key cannot be encoded or decoded.
	ErrEncoding = errors.New("key encoding failure")
)

// KeyPair is a generated RSA key pair.
type KeyPair struct {
	private *rsa.PrivateKey
}

// Generate creates a key pair of the given size from crypto/rand.
func Generate(bits int) (*KeyPair, error) {
	return GenerateFrom(rand.Reader, bits)
}

// GenerateFrom creates a key pair of the given size reading entropy from r.
func GenerateFrom(r io.Reader, bits int) (*KeyPair, error) {
	if bits < MinBits {
		return nil, fmt.Errorf("%w: key size %d is below %d bits", ErrProviderUnavailable, bits, MinBits)
	}
	key, err := rsa.GenerateKey(r, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return &KeyPair{private: key}, nil
}

func (kp *KeyPair) PrivateKey() *rsa.PrivateKey {
	return kp.private
}

func (kp *KeyPair) PublicKey() *rsa.PublicKey {
	return &kp.private.PublicKey
}

// Bits returns the modulus size.
func (kp *KeyPair) Bits() int {
	return kp.private.N.BitLen()
}

// PublicKeyBytes returns the DER encoded X.509 SubjectPublicKeyInfo.
func (kp *KeyPair) PublicKeyBytes() ([]byte, error) {
	b, err := x509.MarshalPKIXPublicKey(kp.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrEncoding, err)
	}
	return b, nil
}

// PrivateKeyBytes returns the DER encoded PKCS#8 private key.
func (kp *KeyPair) PrivateKeyBytes() ([]byte, error) {
	b, err := x509.MarshalPKCS8PrivateKey(kp.private)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrEncoding, err)
	}
	return b, nil
}

func (kp *KeyPair) EncodedPublicKey() (string, error) {
	b, err := kp.PublicKeyBytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (kp *KeyPair) EncodedPrivateKey() (string, error) {
	b, err := kp.PrivateKeyBytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// AuthorizedKey returns the public key in OpenSSH authorized_keys format.
func (kp *KeyPair) AuthorizedKey() (string, error) {
	pub, err := ssh.NewPublicKey(kp.PublicKey())
	if err != nil {
		return "", fmt.Errorf("%w: ssh public key: %v", ErrEncoding, err)
	}
	return string(ssh.MarshalAuthorizedKey(pub)), nil
}

// DecodePublicKey parses a key produced by EncodedPublicKey.
func DecodePublicKey(s string) (*rsa.PublicKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	key, err := x509.ParsePKIXPublicKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key: %T", ErrEncoding, key)
	}
	return pub, nil
}

// DecodePrivateKey parses a key produced by EncodedPrivateKey.
func DecodePrivateKey(s string) (*rsa.PrivateKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	key, err := x509.ParsePKCS8PrivateKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key: %T", ErrEncoding, key)
	}
	return priv, nil
}
