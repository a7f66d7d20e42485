package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// AdminClaims is the payload of the admin session token. The registered
// ID (jti) keys the server-side session registry.
type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// MintAdminToken issues a signed admin session token. An empty jti is
// replaced with a fresh uuid.
func MintAdminToken(cfg config.JWTConfig, now time.Time, username, jti string) (string, *AdminClaims, error) {
	if cfg.Secret == "" {
		return "", nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", nil, fmt.Errorf("jwt issuer is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return "", nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	if strings.TrimSpace(username) == "" {
		return "", nil, fmt.Errorf("username is required")
	}

	jti = strings.TrimSpace(jti)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := &AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("signing jwt: %w", err)
	}
	return signed, claims, nil
}

// ParseAdminToken validates signature, issuer and expiry and returns the claims.
func ParseAdminToken(cfg config.JWTConfig, tokenString string) (*AdminClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Username == "" {
		return nil, fmt.Errorf("token is missing required claims")
	}
	return claims, nil
}
