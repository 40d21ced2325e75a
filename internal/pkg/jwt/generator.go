// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RecoveryTTL bounds how long a password recovery link stays usable.
const RecoveryTTL = 30 * time.Minute

type Generator struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	kid      string // key id for rotation
	Ttl      time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, ttl time.Duration) *Generator {
	return &Generator{
		priv:     priv,
		issuer:   issuer,
		audience: audience,
		kid:      kid,
		Ttl:      ttl,
	}
}

// Token is a signed token with its id and expiry.
type Token struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

// Generate signs a token for identityID.
func (g *Generator) Generate(identityID uuid.UUID, email, purpose string, isTemp bool) (*Token, error) {
	if g.priv == nil {
		return nil, fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	expiresIn := g.Ttl
	if isTemp {
		expiresIn = RecoveryTTL
	}
	expiresAt := now.Add(expiresIn)

	claims := &Claims{
		Email:          email,
		IsTemp:         isTemp,
		SessionPurpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   identityID.String(),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Token{Value: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// GenerateAccessToken generates a standard access token
func (g *Generator) GenerateAccessToken(identityID uuid.UUID, email string) (*Token, error) {
	return g.Generate(identityID, email, PurposeAccess, false)
}

// GenerateRecoveryToken generates the temporary token embedded in a
// password recovery link.
func (g *Generator) GenerateRecoveryToken(identityID uuid.UUID, email string) (*Token, error) {
	return g.Generate(identityID, email, PurposeRecovery, true)
}
