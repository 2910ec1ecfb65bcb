package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// DefaultTokenTTL — срок жизни токена по умолчанию.
const DefaultTokenTTL = 24 * time.Hour

// Claims — содержимое bearer-токена. Subject хранит email пользователя.
type Claims struct {
	Role   domain.Role `json:"role"`
	UserID int64       `json:"uid"`
	jwt.RegisteredClaims
}

// Token — выданный токен и момент его истечения.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenIssuer выпускает и проверяет HS256-токены.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт issuer; пустой секрет недопустим.
func NewTokenIssuer(secret string, ttl time.Duration, clock func() time.Time) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: clock}, nil
}

// Issue выпускает токен для пользователя.
func (i *TokenIssuer) Issue(identity domain.Identity) (Token, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role:   identity.Role(),
		UserID: identity.ID(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Email(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: value, ExpiresAt: expiresAt}, nil
}

// Parse проверяет подпись и срок действия. Любая ошибка оборачивает domain.ErrUnauthenticated.
func (i *TokenIssuer) Parse(value string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: token subject is empty", domain.ErrUnauthenticated)
	}
	return claims, nil
}
