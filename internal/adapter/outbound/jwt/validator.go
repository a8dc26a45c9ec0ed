package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/approvenow/server/internal/port/outbound"
)

// Config holds access token validation settings.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	// Leeway tolerates clock skew with the identity provider.
	Leeway time.Duration
}

// claims is the access token payload issued by the identity provider.
type claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Validator validates HS256 access tokens.
type Validator struct {
	secret []byte
	parser *jwt.Parser
	cfg    Config
}

// NewValidator creates a token validator.
func NewValidator(cfg Config) (*Validator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Validator{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
		cfg:    cfg,
	}, nil
}

// ValidateAccessToken implements outbound.TokenValidatorPort.
func (v *Validator) ValidateAccessToken(tokenString string) (*outbound.JWTClaims, error) {
	var c claims
	_, err := v.parser.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	return &outbound.JWTClaims{
		UserID: userID,
		Email:  c.Email,
		Name:   c.Name,
	}, nil
}

// Issue signs an access token with the validator's secret. Used by local
// tooling and tests; production tokens come from the identity provider.
func (v *Validator) Issue(userID uuid.UUID, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.cfg.Audience != "" {
		c.Audience = jwt.ClaimStrings{v.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

var _ outbound.TokenValidatorPort = (*Validator)(nil)
