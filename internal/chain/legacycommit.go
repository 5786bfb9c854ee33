package chain

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
)

// secp256k1H is a second secp256k1 generator, independent of the
// curve's standard base point, used only by the classical blinding
// path below. It exists purely to port Pedersen-committed UTXO
// fixtures from chains that never moved to a hash-based commitment
// scheme; the production commitment path in tx.go does not use it.
var secp256k1H = deriveSecp256k1H()

func deriveSecp256k1H() *secp256k1.JacobianPoint {
	digest := blake3.Sum256([]byte("zhtp-legacy-commitment-h"))
	var h secp256k1.ModNScalar
	h.SetBytes(&digest)
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&h, &p)
	return &p
}

// LegacyBlindingFactor is a classical secp256k1 scalar used to open a
// Pedersen-style commitment ported from a legacy UTXO fixture. This
// chain's own notes commit with a hash construction (tx.go); this type
// exists only for importing and re-verifying commitments that were
// produced the classical way.
type LegacyBlindingFactor struct {
	scalar secp256k1.ModNScalar
}

// NewLegacyBlindingFactor draws a random blinding scalar.
func NewLegacyBlindingFactor() (LegacyBlindingFactor, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return LegacyBlindingFactor{}, xerrors.New(xerrors.KindCrypto, "chain.NewLegacyBlindingFactor", err)
	}
	var s secp256k1.ModNScalar
	s.SetBytes(&buf)
	return LegacyBlindingFactor{scalar: s}, nil
}

// Commit computes r*G + amount*H, the classical Pedersen commitment to
// amount under this blinding factor.
func (b LegacyBlindingFactor) Commit(amount uint64) [33]byte {
	var rG, vH, sum secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&b.scalar, &rG)

	var amtBuf [32]byte
	binary.BigEndian.PutUint64(amtBuf[24:], amount)
	var v secp256k1.ModNScalar
	v.SetBytes(&amtBuf)
	secp256k1.ScalarMultNonConst(&v, secp256k1H, &vH)

	secp256k1.AddNonConst(&rG, &vH, &sum)
	sum.ToAffine()

	pub := secp256k1.NewPublicKey(&sum.X, &sum.Y)
	var out [33]byte
	copy(out[:], pub.SerializeCompressed())
	return out
}

// VerifyLegacyCommitment reports whether commitment opens to amount
// under blinding. Used when admitting ported fixtures into the UTXO
// set, not on the hot transaction-validation path.
func VerifyLegacyCommitment(commitment [33]byte, blinding LegacyBlindingFactor, amount uint64) bool {
	got := blinding.Commit(amount)
	return got == commitment
}
