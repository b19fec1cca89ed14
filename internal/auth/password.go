package auth

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a merchant API secret for storage. The plaintext secret
// is only ever returned once, at registration.
func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(b), err
}

func VerifySecret(plain, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
