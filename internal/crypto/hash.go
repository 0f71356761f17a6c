package crypto

import "golang.org/x/crypto/bcrypt"

// hashCost trades hashing latency against brute-force resistance.
const hashCost = 10

// HashPassword hashes a password with bcrypt. The salt is embedded in the
// returned hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks whether a password matches the given bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
