package zkcrypto

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
)

const nonceSize = 12

// Ciphertext is the wire layout for a hybrid-encrypted message:
// kem_ciphertext ‖ nonce ‖ aead(plaintext ‖ associated_data).
type Ciphertext struct {
	KEMCiphertext []byte
	Nonce         [nonceSize]byte
	Sealed        []byte
}

// Marshal concatenates the three fields in wire order.
func (c Ciphertext) Marshal() []byte {
	out := make([]byte, 0, len(c.KEMCiphertext)+nonceSize+len(c.Sealed))
	out = append(out, c.KEMCiphertext...)
	out = append(out, c.Nonce[:]...)
	out = append(out, c.Sealed...)
	return out
}

// UnmarshalCiphertext splits a wire-format blob back into its three
// fields. kemCTSize is the KEM scheme's fixed ciphertext length and
// must be supplied by the caller, since it is not self-describing.
func UnmarshalCiphertext(blob []byte, kemCTSize int) (Ciphertext, error) {
	if len(blob) < kemCTSize+nonceSize {
		return Ciphertext{}, xerrors.New(xerrors.KindCrypto, "zkcrypto.UnmarshalCiphertext", xerrors.ErrInvalidLength)
	}
	var c Ciphertext
	c.KEMCiphertext = append([]byte(nil), blob[:kemCTSize]...)
	copy(c.Nonce[:], blob[kemCTSize:kemCTSize+nonceSize])
	c.Sealed = append([]byte(nil), blob[kemCTSize+nonceSize:]...)
	return c, nil
}

// Encrypt KEM-encapsulates a shared secret to recipientPK, derives a
// ChaCha20-Poly1305 key from it, and seals plaintext‖associatedData
// under a fresh CSPRNG nonce.
func Encrypt(recipientPK PublicKey, plaintext, associatedData []byte) (Ciphertext, error) {
	pub, err := recipientPK.kemPub()
	if err != nil {
		return Ciphertext{}, err
	}
	ct, ss, err := kemScheme.Encapsulate(pub)
	if err != nil {
		return Ciphertext{}, xerrors.New(xerrors.KindCrypto, "zkcrypto.Encrypt", fmt.Errorf("%w: %v", xerrors.ErrRngFailure, err))
	}

	aead, err := chacha20poly1305.New(deriveAEADKey(ss))
	if err != nil {
		return Ciphertext{}, xerrors.New(xerrors.KindCrypto, "zkcrypto.Encrypt", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return Ciphertext{}, xerrors.New(xerrors.KindCrypto, "zkcrypto.Encrypt", fmt.Errorf("%w: %v", xerrors.ErrRngFailure, err))
	}

	combined := make([]byte, 0, len(plaintext)+len(associatedData))
	combined = append(combined, plaintext...)
	combined = append(combined, associatedData...)
	sealed := aead.Seal(nil, nonce[:], combined, nil)

	return Ciphertext{KEMCiphertext: ct, Nonce: nonce, Sealed: sealed}, nil
}

// Decrypt reverses Encrypt using the recipient's private key, then
// verifies the trailing bytes of the opened plaintext exactly equal
// the caller-supplied associated data. A mismatch fails with
// ErrAeadFailure regardless of whether the AEAD tag itself verified,
// since a forged-but-valid-tag message with different AD must still
// be rejected.
func Decrypt(sk *PrivateKey, c Ciphertext, associatedData []byte) ([]byte, error) {
	priv, err := sk.kemPrivKey()
	if err != nil {
		return nil, err
	}
	ss, err := kemScheme.Decapsulate(priv, c.KEMCiphertext)
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.Decrypt", fmt.Errorf("%w: %v", xerrors.ErrAeadFailure, err))
	}

	aead, err := chacha20poly1305.New(deriveAEADKey(ss))
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.Decrypt", err)
	}

	opened, err := aead.Open(nil, c.Nonce[:], c.Sealed, nil)
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.Decrypt", fmt.Errorf("%w: %v", xerrors.ErrAeadFailure, err))
	}

	if len(opened) < len(associatedData) {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.Decrypt", xerrors.ErrAeadFailure)
	}
	split := len(opened) - len(associatedData)
	if !bytes.Equal(opened[split:], associatedData) {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.Decrypt", xerrors.ErrAeadFailure)
	}
	return opened[:split], nil
}

// deriveAEADKey reduces a KEM shared secret of arbitrary length to the
// 32 bytes ChaCha20-Poly1305 requires, via BLAKE3.
func deriveAEADKey(sharedSecret []byte) []byte {
	sum := blake3.Sum256(sharedSecret)
	return sum[:]
}
