package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordEncoder хеширует и проверяет пароли.
type PasswordEncoder interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
}

// BcryptEncoder — PasswordEncoder на bcrypt.
type BcryptEncoder struct {
	cost int
}

// NewBcryptEncoder создаёт encoder; cost вне допустимого диапазона заменяется bcrypt.DefaultCost.
func NewBcryptEncoder(cost int) *BcryptEncoder {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptEncoder{cost: cost}
}

func (e *BcryptEncoder) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (e *BcryptEncoder) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
