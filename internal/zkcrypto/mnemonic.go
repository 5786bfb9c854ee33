package zkcrypto

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"

	"zhtp-network/internal/xerrors"
)

// NewMnemonic generates a 24-word BIP-39 recovery phrase backing a
// 256-bit entropy source, wide enough to seed the 64-byte key material
// this package derives keys from.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", xerrors.New(xerrors.KindCrypto, "zkcrypto.NewMnemonic", fmt.Errorf("%w: %v", xerrors.ErrRngFailure, err))
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", xerrors.New(xerrors.KindCrypto, "zkcrypto.NewMnemonic", err)
	}
	return phrase, nil
}

// KeypairFromMnemonic recovers a deterministic keypair from a BIP-39
// phrase and an optional passphrase. The standard BIP-39 seed is
// already 64 bytes and is used directly as keypairFromSeed's seed.
func KeypairFromMnemonic(phrase, passphrase string) (PublicKey, *PrivateKey, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.KeypairFromMnemonic", xerrors.ErrInvalidEncoding)
	}
	seed := bip39.NewSeed(phrase, passphrase)
	var expanded [SeedSize]byte
	copy(expanded[:], seed)
	return keypairFromSeed(expanded)
}
