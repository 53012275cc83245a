package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an account password with the configured bcrypt cost.
// Cost lives in AUTH_BCRYPT_COST so registration latency can be tuned per
// environment.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a login password against the stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
