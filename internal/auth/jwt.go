package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
)

// Claims: полезная нагрузка токена покупателя.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// JWTVerifier проверяет HS256-токены и извлекает из них личность покупателя.
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

func NewJWTVerifier(cfg *cfg.AuthCfg) *JWTVerifier {
	return &JWTVerifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify возвращает ErrAuthenticationRequired для пустого токена
// и ErrAuthenticationInvalid для любого непрошедшего проверку.
func (v *JWTVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, e.ErrAuthenticationRequired
	}

	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", e.ErrAuthenticationInvalid, err)
	}

	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", e.ErrAuthenticationInvalid)
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return domain.Identity{}, fmt.Errorf("%w: unexpected issuer %q", e.ErrAuthenticationInvalid, claims.Issuer)
	}

	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return domain.Identity{}, fmt.Errorf("%w: unexpected audience", e.ErrAuthenticationInvalid)
	}

	return domain.NewIdentity(claims.Subject, claims.Name, claims.Email, claims.Phone), nil
}

// Sign выпускает токен тем же секретом. Используется в тестах и локальной отладке.
func (v *JWTVerifier) Sign(claims Claims) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("empty jwt secret")
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
