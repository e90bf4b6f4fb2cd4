package keygen

import (
	"fmt"

	"golang.org/x/crypto/ssh"
)

// PublicKeyInfo describes an authorized_keys style public key.
type PublicKeyInfo struct {
	Algorithm   string
	Comment     string
	Fingerprint string
}

// ParsePublicKey parses a public key file and returns its algorithm, comment
// and SHA256 fingerprint.
func ParsePublicKey(data []byte) (PublicKeyInfo, error) {
	if len(data) == 0 {
		return PublicKeyInfo{}, fmt.Errorf("empty public key")
	}
	pk, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return PublicKeyInfo{}, fmt.Errorf("invalid public key: %w", err)
	}
	return PublicKeyInfo{
		Algorithm:   pk.Type(),
		Comment:     comment,
		Fingerprint: ssh.FingerprintSHA256(pk),
	}, nil
}
