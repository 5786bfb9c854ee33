// Package zkcrypto is the CryptoCore: post-quantum key material
// lifecycle, signatures, KEM-based hybrid encryption, constant-time
// comparison, and guaranteed zeroization.
//
// Signing uses Dilithium3 (github.com/cloudflare/circl), the KEM uses
// Kyber768 (same module) — the lattice-signature/lattice-KEM pair
// spec.md requires without mandating a specific suite. There is no
// classical fallback anywhere in this package.
package zkcrypto

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/hkdf"
	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
)

// FingerprintSize is the length in bytes of a PublicKey fingerprint.
const FingerprintSize = 32

// SeedSize is the length in bytes of a PrivateKey's master seed.
const SeedSize = 64

var kemScheme = kyber768.Scheme()

// PublicKey carries a lattice-signature public half, a lattice-KEM
// public half, and a BLAKE3 fingerprint over the signature half. Sizes
// depend on the configured parameter set and are not fixed array
// lengths so the suite can be swapped without changing the layout.
type PublicKey struct {
	SignPub     []byte
	KEMPub      []byte
	Fingerprint [FingerprintSize]byte
}

// Equal reports whether two public keys are identical, in time
// independent of where the first differing byte appears. All three
// fields are compared and the results accumulated so no branch
// depends on secret-adjacent data; a length mismatch alone does not
// short-circuit because ConstantTimeCompare itself returns 0 (not a
// panic) on unequal lengths.
func (pk PublicKey) Equal(other PublicKey) bool {
	ok := subtle.ConstantTimeCompare(pk.SignPub, other.SignPub)
	ok &= subtle.ConstantTimeCompare(pk.KEMPub, other.KEMPub)
	ok &= subtle.ConstantTimeCompare(pk.Fingerprint[:], other.Fingerprint[:])
	return ok == 1
}

// dilithiumPub/dilithiumPriv/kemPub/kemPriv reconstruct the concrete
// circl types from the wire-format bytes stored on PublicKey/PrivateKey.
func (pk PublicKey) dilithiumPub() (*mode3.PublicKey, error) {
	var out mode3.PublicKey
	if err := out.UnmarshalBinary(pk.SignPub); err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.PublicKey.dilithiumPub", fmt.Errorf("%w: %v", xerrors.ErrInvalidEncoding, err))
	}
	return &out, nil
}

func (pk PublicKey) kemPub() (kem.PublicKey, error) {
	out, err := kemScheme.UnmarshalBinaryPublicKey(pk.KEMPub)
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.PublicKey.kemPub", fmt.Errorf("%w: %v", xerrors.ErrInvalidEncoding, err))
	}
	return out, nil
}

// PrivateKey carries the signature secret half, the KEM secret half,
// and a 64-byte master seed for deterministic child-key derivation.
// PrivateKey must never be copied implicitly; Clone makes the copy
// explicit so a consumer acknowledges it.
type PrivateKey struct {
	signPriv []byte
	kemPriv  []byte
	seed     [SeedSize]byte
	wiped    bool
}

// ZeroizingKey is the marker every type carrying sensitive bytes
// implements. Destroy must overwrite the backing memory; there is no
// Copy-like implicit duplication path for these types.
type ZeroizingKey interface {
	Destroy()
}

var _ ZeroizingKey = (*PrivateKey)(nil)

// Destroy overwrites the private key's secret material. Safe to call
// more than once.
func (sk *PrivateKey) Destroy() {
	if sk == nil || sk.wiped {
		return
	}
	zero(sk.signPriv)
	zero(sk.kemPriv)
	zero(sk.seed[:])
	sk.wiped = true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Clone makes an explicit copy of sk. The caller becomes an
// independent owner responsible for its own Destroy call.
func (sk *PrivateKey) Clone() *PrivateKey {
	cp := &PrivateKey{
		signPriv: append([]byte(nil), sk.signPriv...),
		kemPriv:  append([]byte(nil), sk.kemPriv...),
	}
	copy(cp.seed[:], sk.seed[:])
	return cp
}

func (sk *PrivateKey) dilithiumPriv() (*mode3.PrivateKey, error) {
	if sk.wiped {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.PrivateKey.dilithiumPriv", xerrors.ErrInvalidLength)
	}
	var out mode3.PrivateKey
	if err := out.UnmarshalBinary(sk.signPriv); err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.PrivateKey.dilithiumPriv", fmt.Errorf("%w: %v", xerrors.ErrInvalidEncoding, err))
	}
	return &out, nil
}

func (sk *PrivateKey) kemPrivKey() (kem.PrivateKey, error) {
	if sk.wiped {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.PrivateKey.kemPrivKey", xerrors.ErrInvalidLength)
	}
	out, err := kemScheme.UnmarshalBinaryPrivateKey(sk.kemPriv)
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.PrivateKey.kemPrivKey", fmt.Errorf("%w: %v", xerrors.ErrInvalidEncoding, err))
	}
	return out, nil
}

// GenerateKeypair produces a fresh (PublicKey, PrivateKey) pair whose
// fingerprint is BLAKE3 over the signature public half.
func GenerateKeypair() (PublicKey, *PrivateKey, error) {
	var seed [SeedSize]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.GenerateKeypair", fmt.Errorf("%w: %v", xerrors.ErrRngFailure, err))
	}
	return keypairFromSeed(seed)
}

// DeriveChild derives a new keypair deterministically from a master
// seed and a derivation path, via HKDF-SHA512. The master seed itself
// is never returned to the caller.
func DeriveChild(master *PrivateKey, path string) (PublicKey, *PrivateKey, error) {
	if master == nil || master.wiped {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.DeriveChild", xerrors.ErrInvalidLength)
	}
	h := hkdf.New(sha512.New, master.seed[:], nil, []byte(path))
	var childSeed [SeedSize]byte
	if _, err := io.ReadFull(h, childSeed[:]); err != nil {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.DeriveChild", err)
	}
	return keypairFromSeed(childSeed)
}

// keypairFromSeed expands a 64-byte seed into independent randomness
// streams for the signature and KEM generators via BLAKE3's XOF, so
// both halves derive deterministically from one seed without reusing
// the same bytes.
func keypairFromSeed(seed [SeedSize]byte) (PublicKey, *PrivateKey, error) {
	signRand := blake3.New(64, seed[:32]).XOF()
	spub, spriv, err := mode3.GenerateKey(signRand)
	if err != nil {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.keypairFromSeed", fmt.Errorf("%w: %v", xerrors.ErrRngFailure, err))
	}

	kemRand := blake3.New(64, seed[32:]).XOF()
	kemSeed := make([]byte, kemScheme.SeedSize())
	if _, err := io.ReadFull(kemRand, kemSeed); err != nil {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.keypairFromSeed", fmt.Errorf("%w: %v", xerrors.ErrRngFailure, err))
	}
	kpub, kpriv := kemScheme.DeriveKeyPair(kemSeed)

	pub := PublicKey{SignPub: spub.Bytes()}
	kpubBytes, err := kpub.MarshalBinary()
	if err != nil {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.keypairFromSeed", err)
	}
	pub.KEMPub = kpubBytes
	pub.Fingerprint = blake3.Sum256(pub.SignPub)

	priv := &PrivateKey{seed: seed, signPriv: spriv.Bytes()}
	kprivBytes, err := kpriv.MarshalBinary()
	if err != nil {
		return PublicKey{}, nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.keypairFromSeed", err)
	}
	priv.kemPriv = kprivBytes

	return pub, priv, nil
}
