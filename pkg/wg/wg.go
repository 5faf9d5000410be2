package wg

import (
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// WgKeyProvider is the KeyProvider backed by wgtypes (Curve25519)
type WgKeyProvider struct{}

// GeneratePrivateKey implements KeyProvider
func (w *WgKeyProvider) GeneratePrivateKey() (string, error) {
	key, err := wgtypes.GeneratePrivateKey()

	if err != nil {
		return "", &KeyDerivationError{msg: "failed to generate private key", err: err}
	}

	return key.String(), nil
}

// PublicKey implements KeyProvider
func (w *WgKeyProvider) PublicKey(privateKey string) (string, error) {
	key, err := wgtypes.ParseKey(privateKey)

	if err != nil {
		return "", &KeyDerivationError{msg: "invalid private key", err: err}
	}

	return key.PublicKey().String(), nil
}

func NewKeyProvider() KeyProvider {
	return &WgKeyProvider{}
}
