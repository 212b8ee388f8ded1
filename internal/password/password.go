package password

import "golang.org/x/crypto/bcrypt"

const hashCost = 12

// Hash returns a bcrypt hash of the plain-text password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the plain-text candidate matches the stored hash.
// An empty hash or candidate never matches.
func Verify(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
