package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/ports"
)

const AudienceAdmin = "smartwallet:admin"

const RoleAdmin = "admin"

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
	now     func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer issuing tokens valid for ttl
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, ttl time.Duration) ports.Tokenizer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTTokenizer{signKey: signKey, ttl: ttl, now: time.Now}
}

// IssueAdminToken signs an admin token for subject
func (j *JWTTokenizer) IssueAdminToken(subject string) (string, error) {
	now := j.now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceAdmin},
		},
		Role: RoleAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}

	return signedToken, nil
}

// ParseAdminToken verifies an admin token and returns its session
func (j *JWTTokenizer) ParseAdminToken(tokenStr string) (*core.AdminSession, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceAdmin), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, core.ErrUnauthorized
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims.Role != RoleAdmin {
		return nil, core.ErrUnauthorized
	}

	return &core.AdminSession{
		ID:        claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
