package wg

import "strings"

// KeyProviderStub derives keys without any cryptography. The public key of
// a private key is "pub-" followed by the private key so tests can predict
// the output.
type KeyProviderStub struct {
	counter int
}

// GeneratePrivateKey implements KeyProvider
func (s *KeyProviderStub) GeneratePrivateKey() (string, error) {
	s.counter++
	return "priv" + strings.Repeat("x", s.counter), nil
}

// PublicKey implements KeyProvider. Keys containing whitespace are
// rejected to exercise the error path.
func (s *KeyProviderStub) PublicKey(privateKey string) (string, error) {
	if privateKey == "" || strings.ContainsAny(privateKey, " \t\n") {
		return "", &KeyDerivationError{msg: "invalid private key"}
	}

	return "pub-" + privateKey, nil
}
