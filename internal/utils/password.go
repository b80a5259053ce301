package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes the password of an admin-created login.
// The cost comes from configuration; anything outside bcrypt's valid
// range falls back to the library default, so a typoed BCRYPT_COST
// cannot weaken hashes or break user creation.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash. An
// empty hash never matches; claim-only accounts are created without
// a password and must not be able to log in.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
