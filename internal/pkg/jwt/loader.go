// internal/pkg/jwt/loader.go
package jwt

import (
	"crypto/rsa"
	"time"
)

type Config struct {
	PrivPath string
	PubPath  string
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

func LoadAndBuild(cfg Config) (*Manager, error) {
	priv, pub, err := LoadKeyPair(cfg.PrivPath, cfg.PubPath)
	if err != nil {
		return nil, err
	}

	return NewManager(priv, pub, cfg), nil
}

// NewManager builds a manager from keys already in memory.
func NewManager(priv *rsa.PrivateKey, pub *rsa.PublicKey, cfg Config) *Manager {
	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}
}
