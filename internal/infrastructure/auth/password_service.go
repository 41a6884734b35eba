package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/you/storefront/domain"
)

// BcryptPasswordService hashes onboarding passwords with bcrypt. The cost
// is configurable so tests can run at bcrypt.MinCost.
type BcryptPasswordService struct {
	cost int
}

// NewPasswordService returns a bcrypt-backed password service. A cost
// outside bcrypt's valid range falls back to bcrypt.DefaultCost.
func NewPasswordService(cost int) domain.PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

func (s *BcryptPasswordService) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. The cost is
// read from the hash itself, so hashes made at an older cost still verify.
func (s *BcryptPasswordService) Verify(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
