// internal/pkg/jwt/keys.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

var ErrKeyMismatch = errors.New("public key does not belong to the signing key")

// LoadKeyPair reads the PEM signing key and its verification key. PKCS1,
// PKCS8 and PKIX encodings are accepted; pub must be the public half of
// priv.
func LoadKeyPair(privPath, pubPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privPEM, err := os.ReadFile(privPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key %s: %w", privPath, err)
	}

	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key %s: %w", pubPath, err)
	}

	if !priv.PublicKey.Equal(pub) {
		return nil, nil, ErrKeyMismatch
	}
	return priv, pub, nil
}
