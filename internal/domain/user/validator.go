package user

import (
	"fmt"
	"unicode"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
	// MaxPasswordLen предел bcrypt
	MaxPasswordLen = 72
)

// Validator проверяет учетные данные до обращения к хранилищу
type Validator interface {
	ValidateRegister(login, password string) error
	ValidateLogin(login string) error
	ValidatePassword(password string) error
}

// PasswordPolicy требования к паролю при регистрации
type PasswordPolicy struct {
	RequireLower   bool
	RequireUpper   bool
	RequireDigit   bool
	RequireSpecial bool
}

type CredentialsValidator struct {
	policy PasswordPolicy
}

// NewValidator валидатор со строгой политикой: все классы символов обязательны
func NewValidator() *CredentialsValidator {
	return NewValidatorWithPolicy(PasswordPolicy{
		RequireLower:   true,
		RequireUpper:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	})
}

func NewValidatorWithPolicy(p PasswordPolicy) *CredentialsValidator {
	return &CredentialsValidator{policy: p}
}

func (v *CredentialsValidator) ValidateRegister(login, password string) error {
	if err := v.ValidateLogin(login); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := v.ValidatePassword(password); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	return nil
}

func (v *CredentialsValidator) ValidateLogin(login string) error {
	n := len([]rune(login))
	if n < MinLoginLen {
		return fmt.Errorf("must be at least %d characters", MinLoginLen)
	}
	if n > MaxLoginLen {
		return fmt.Errorf("must be at most %d characters", MaxLoginLen)
	}

	for _, r := range login {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("may contain only letters, digits, '_', '-', '.'")
		}
	}
	return nil
}

func (v *CredentialsValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("must be at most %d bytes", MaxPasswordLen)
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case v.policy.RequireLower && !lower:
		return fmt.Errorf("must contain a lowercase letter")
	case v.policy.RequireUpper && !upper:
		return fmt.Errorf("must contain an uppercase letter")
	case v.policy.RequireDigit && !digit:
		return fmt.Errorf("must contain a digit")
	case v.policy.RequireSpecial && !special:
		return fmt.Errorf("must contain a special character")
	}
	return nil
}
