package zkproof

import (
	"zhtp-network/internal/xerrors"
)

// ZkTransactionProof bundles the three proofs a transaction
// must carry. Each field is a concrete Proof or is left as the zero
// Proof{}; Verify treats a zero Proof as missing and rejects
// immediately rather than skipping that leg of validation.
type ZkTransactionProof struct {
	Amount    Proof
	Balance   Proof
	Nullifier Proof
}

func (p ZkTransactionProof) present() bool {
	return p.Amount.proof != nil && p.Balance.proof != nil && p.Nullifier.proof != nil
}

// Verify succeeds only if all three proofs are present and each
// independently verifies against its own circuit's cached verifying
// key. A missing proof object is treated as an invalid bundle, not an
// error distinct from a failed proof — the caller sees the same
// KindProof rejection either way.
func (p ZkTransactionProof) Verify() error {
	if !p.present() {
		return xerrors.New(xerrors.KindProof, "zkproof.ZkTransactionProof.Verify", xerrors.ErrInvalidProofFormat)
	}
	if p.Amount.Circuit != CircuitTransaction || p.Balance.Circuit != CircuitTransaction || p.Nullifier.Circuit != CircuitTransaction {
		return xerrors.New(xerrors.KindProof, "zkproof.ZkTransactionProof.Verify", xerrors.ErrInvalidProofFormat)
	}
	if err := Verify(p.Amount); err != nil {
		return err
	}
	if err := Verify(p.Balance); err != nil {
		return err
	}
	if err := Verify(p.Nullifier); err != nil {
		return err
	}
	return nil
}
