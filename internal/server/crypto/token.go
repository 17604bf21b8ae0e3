package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const issuer = "ssdeepviz"

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the session token payload.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies session tokens.
type TokenManager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenManager derives the signing key from masterSecret. Tokens expire
// after ttl.
func NewTokenManager(masterSecret string, ttl time.Duration) (*TokenManager, error) {
	if masterSecret == "" {
		return nil, errors.New("master secret is empty")
	}
	seed := make([]byte, ed25519.SeedSize)
	kdf := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte("ssdeepviz session token v1"))
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	privateKey := ed25519.NewKeyFromSeed(seed)

	return &TokenManager{
		privateKey: privateKey,
		publicKey:  privateKey.Public().(ed25519.PublicKey),
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// CreateToken signs a token bound to sessionID.
func (m *TokenManager) CreateToken(sessionID string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(m.privateKey)
}

// VerifyToken checks the signature and expiry and returns the session id.
func (m *TokenManager) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
