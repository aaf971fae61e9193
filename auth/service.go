package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaahana-ai/vaahana/pkg/logx"
)

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "vaahana"

// defaultTokenTTL applies when the configuration does not set one.
const defaultTokenTTL = 30 * time.Minute

// Config carries the client credential settings. The client secret is
// configured as a bcrypt hash, never in the clear.
type Config struct {
	SecretKey        string
	ClientID         string
	ClientSecretHash string
	TokenTTL         time.Duration
}

// Service mints and validates the HS256 bearer tokens that guard the
// API when auth is enabled.
type Service struct {
	secret     []byte
	clientID   string
	secretHash []byte
	ttl        time.Duration
}

// NewService validates the credential configuration and returns the
// token service.
func NewService(cfg Config) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, NewMissingSecretError()
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	logx.WithFields(logx.Fields{
		"client_id": cfg.ClientID,
		"token_ttl": ttl,
	}).Debug("Auth service configured")

	return &Service{
		secret:     []byte(cfg.SecretKey),
		clientID:   cfg.ClientID,
		secretHash: []byte(cfg.ClientSecretHash),
		ttl:        ttl,
	}, nil
}

// Token is a minted bearer token with its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IssueToken checks the client credentials and mints a bearer token.
// Credential failures are indistinguishable to the caller.
func (s *Service) IssueToken(clientID, clientSecret string) (*Token, error) {
	if clientID == "" || clientID != s.clientID {
		logx.WithField("client_id", clientID).Warn("Token request with unknown client ID")
		return nil, NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(clientSecret)); err != nil {
		logx.WithField("client_id", clientID).Warn("Token request with wrong client secret")
		return nil, NewInvalidCredentialsError()
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		logx.WithField("client_id", clientID).WithError(err).Error("Token signing failed")
		return nil, NewSigningError(err)
	}

	logx.WithFields(logx.Fields{
		"client_id":  clientID,
		"expires_at": expiresAt,
	}).Info("Access token issued")

	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// ValidateToken parses a bearer token and returns the client ID it was
// issued to.
func (s *Service) ValidateToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", NewInvalidTokenError(err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", NewInvalidTokenError(nil)
	}
	return claims.Subject, nil
}
