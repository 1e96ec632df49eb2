package hash

import "golang.org/x/crypto/bcrypt"

// bcrypt reads at most 72 bytes of input. Longer passwords are silently
// truncated so hashes stay compatible with ones minted before this cap
// was enforced by the library.
const maxPasswordBytes = 72

func cap72(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword(cap72(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is
// a verification failure, never an error.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), cap72(password)) == nil
}
