package service

import (
	"regexp"

	pkgerrors "prepboard/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var credentialValidate = validator.New()

// Password: 8-128 chars, must contain at least one letter and one number, printable ASCII only.
var passwordPattern = regexp.MustCompile(`^[\x21-\x7E]{8,128}$`)

func validateEmail(email string) error {
	if email == "" {
		return pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithDetail("field", "email")
	}
	if err := credentialValidate.Var(email, "email,max=320"); err != nil {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	return nil
}

func validatePassword(password string) error {
	if !passwordPattern.MatchString(password) {
		if len(password) < 8 {
			return pkgerrors.New(pkgerrors.PasswordTooWeak)
		}
		return pkgerrors.New(pkgerrors.InvalidPassword)
	}
	if !hasLetterAndNumber(password) {
		return pkgerrors.New(pkgerrors.PasswordTooWeak)
	}
	return nil
}

func validateLoginPassword(password string) error {
	if password == "" {
		return pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithDetail("field", "password")
	}
	if len(password) > 128 {
		return pkgerrors.New(pkgerrors.InvalidPassword)
	}
	return nil
}

func hasLetterAndNumber(password string) bool {
	hasLetter := false
	hasNumber := false
	for i := 0; i < len(password); i++ {
		b := password[i]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') {
			hasLetter = true
		} else if b >= '0' && b <= '9' {
			hasNumber = true
		}
		if hasLetter && hasNumber {
			return true
		}
	}
	return false
}
