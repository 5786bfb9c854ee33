package zkcrypto

import (
	"crypto"
	"crypto/rand"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"zhtp-network/internal/xerrors"
)

// Signature is a detached Dilithium3 signature over a message.
type Signature struct {
	Bytes []byte
}

// Sign produces a detached signature over msg under sk. sk must not
// have been destroyed.
func Sign(sk *PrivateKey, msg []byte) (Signature, error) {
	priv, err := sk.dilithiumPriv()
	if err != nil {
		return Signature{}, err
	}
	sig, err := priv.Sign(rand.Reader, msg, crypto.Hash(0))
	if err != nil {
		return Signature{}, xerrors.New(xerrors.KindCrypto, "zkcrypto.Sign", fmt.Errorf("%w: %v", xerrors.ErrVerificationFailed, err))
	}
	return Signature{Bytes: sig}, nil
}

// Verify fails closed: a public key that does not unmarshal
// (ErrInvalidEncoding), an empty signature (ErrInvalidLength), or
// signature bytes that do not verify (ErrVerificationFailed) all
// return an error rather than treating the signature as absent.
// There is no weak-hash or classical fallback path.
func Verify(pk PublicKey, msg []byte, sig Signature) error {
	pub, err := pk.dilithiumPub()
	if err != nil {
		return err
	}
	if len(sig.Bytes) == 0 {
		return xerrors.New(xerrors.KindCrypto, "zkcrypto.Verify", xerrors.ErrInvalidLength)
	}
	if !mode3.Verify(pub, msg, sig.Bytes) {
		return xerrors.New(xerrors.KindCrypto, "zkcrypto.Verify", xerrors.ErrVerificationFailed)
	}
	return nil
}
