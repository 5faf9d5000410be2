package wg

import "fmt"

// KeyDerivationError: a key could not be generated or a public key could
// not be derived from the given private key
type KeyDerivationError struct {
	msg string
	err error
}

func (m *KeyDerivationError) Error() string {
	if m.err == nil {
		return m.msg
	}

	return fmt.Sprintf("%s: %s", m.msg, m.err.Error())
}

func (m *KeyDerivationError) Unwrap() error {
	return m.err
}

// KeyProvider generates WireGuard private keys and derives their public
// counterpart. Keys are base64 encoded strings as used by wg-quick.
type KeyProvider interface {
	// GeneratePrivateKey creates a new private key
	GeneratePrivateKey() (string, error)
	// PublicKey derives the public key of the given private key
	PublicKey(privateKey string) (string, error)
}
