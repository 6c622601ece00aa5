package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// PasswordSymbols is the punctuation set a password must draw at least one
// character from.
const PasswordSymbols = `!@#$%^&*(),.?":{}|<>`

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt can hash. Length is
// measured in bytes of the UTF-8 encoding, not in characters.
const MaxPasswordBytes = 72

// MaxUsernameLength is the longest accepted username, in characters.
const MaxUsernameLength = 64

var errWeakPassword = common.WithDetail(common.ErrorValidation, fmt.Sprintf(
	"Invalid password. Password must be at least %d characters long and contain at least one capital letter, special symbol, and number.",
	MinPasswordLength))

var errLongPassword = common.WithDetail(common.ErrorValidation, fmt.Sprintf(
	"Invalid password. Password must be at most %d bytes long.", MaxPasswordBytes))

// ValidatePassword enforces the password policy: at least MinPasswordLength
// characters with an upper-case letter, a digit and one of PasswordSymbols,
// and no more than MaxPasswordBytes bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return errLongPassword
	}

	var upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	symbol := strings.ContainsAny(password, PasswordSymbols)

	if !upper || !digit || !symbol {
		return errWeakPassword
	}
	return nil
}

// ValidateUsername accepts 1 to MaxUsernameLength characters of valid
// UTF-8 without control characters. Anything else a client sends is a
// legal username; avatars.Key escapes it before it reaches storage.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n == 0 || n > MaxUsernameLength || !utf8.ValidString(username) ||
		strings.IndexFunc(username, unicode.IsControl) >= 0 {
		return common.WithDetail(common.ErrorValidation, fmt.Sprintf(
			"Invalid username. Use 1 to %d printable characters.", MaxUsernameLength))
	}
	return nil
}

// PasswordHasher wraps bcrypt with a fixed cost.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher returns a hasher using cost, clamped to bcrypt's bounds.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-password"), cost)
	return &PasswordHasher{cost: cost, dummyHash: dummy}
}

// Hash returns the bcrypt hash of password. A password longer than
// MaxPasswordBytes is a validation error.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", errLongPassword
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports common.ErrorUnauthorized when password does not match hash.
// No stored hash can match a password longer than MaxPasswordBytes, so such
// passwords are refused without consulting bcrypt.
func (h *PasswordHasher) Compare(hash, password string) error {
	if len(password) > MaxPasswordBytes {
		return common.ErrorUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return common.ErrorUnauthorized
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

// CompareDummy burns the same time as a real comparison. Login calls it for
// unknown users.
func (h *PasswordHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
