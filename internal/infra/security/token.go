package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hotelier/internal/app/services/auth"
	domainuser "hotelier/internal/domain/user"
)

var ErrSecretRequired = errors.New("security: jwt secret is required")

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 access tokens carrying the user id as subject and
// the user's role.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration, issuer string) (*JWTIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

func (j *JWTIssuer) Issue(userID domainuser.ID, role domainuser.Role) (string, time.Time, error) {
	now := j.now().UTC()
	exp := now.Add(j.ttl)
	claims := accessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("security: sign token: %w", err)
	}
	return signed, exp, nil
}

func (j *JWTIssuer) Verify(raw string) (auth.Claims, error) {
	var claims accessClaims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return auth.Claims{}, fmt.Errorf("security: verify token: %w", err)
	}
	role, err := domainuser.ParseRole(claims.Role)
	if err != nil {
		return auth.Claims{}, err
	}
	if claims.Subject == "" {
		return auth.Claims{}, errors.New("security: token subject missing")
	}
	return auth.Claims{
		UserID:    domainuser.ID(claims.Subject),
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

var _ auth.TokenIssuer = (*JWTIssuer)(nil)
var _ auth.PasswordHasher = BcryptHasher{}
