// Package chain is BlockchainState: the append-only ordered chain,
// transaction and block validation, the nullifier/UTXO projections,
// the mempool, and difficulty retargeting.
package chain

import (
	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
	"zhtp-network/internal/zkcrypto"
	"zhtp-network/internal/zkproof"
)

// TxType tags a transaction's canonical kind. System transactions
// (UBI, Reward, DAODistribution) carry no inputs and mint new supply
// under the protocol's minting rule for the block they appear in.
type TxType uint8

const (
	TxStandard TxType = iota
	TxUBI
	TxReward
	TxDAODistribution
)

func (t TxType) isSystem() bool {
	return t == TxUBI || t == TxReward || t == TxDAODistribution
}

// Input references a spent note by its commitment and the nullifier
// that proves it has not been spent before.
type Input struct {
	Commitment [32]byte
	Nullifier  [32]byte
}

// Output creates a new note. Amount is carried in the clear so fee and
// balance accounting can be checked without opening the shielded
// proofs; the proofs separately bind Amount to the sender's witness.
type Output struct {
	Commitment [32]byte
	Amount     uint64
}

// Transaction is the unit BlockchainState orders and finalizes.
type Transaction struct {
	Version   uint32
	ChainID   uint64
	Type      TxType
	Inputs    []Input
	Outputs   []Output
	Fee       uint64
	Proofs    zkproof.ZkTransactionProof
	Sender    zkcrypto.PublicKey
	Signature zkcrypto.Signature
}

// SigningHash is the canonical hash signed by Sender and checked by
// Verify — Version, ChainID, Type, Inputs, Outputs and Fee, in that
// fixed order. Proofs, Sender and Signature are not part of it.
func (tx Transaction) SigningHash() [32]byte {
	h := blake3.New(32, nil)
	var buf [8]byte
	putU32(buf[:4], tx.Version)
	h.Write(buf[:4])
	putU64(buf[:], tx.ChainID)
	h.Write(buf[:])
	h.Write([]byte{byte(tx.Type)})
	for _, in := range tx.Inputs {
		h.Write(in.Commitment[:])
		h.Write(in.Nullifier[:])
	}
	for _, out := range tx.Outputs {
		h.Write(out.Commitment[:])
		putU64(buf[:], out.Amount)
		h.Write(buf[:])
	}
	putU64(buf[:], tx.Fee)
	h.Write(buf[:])
	var sum [32]byte
	h.Sum(sum[:0])
	return sum
}

// Hash is the transaction's identity in the block's Merkle tree —
// SigningHash extended with the signature, so two transactions with
// identical contents but different signers hash differently.
func (tx Transaction) Hash() [32]byte {
	signing := tx.SigningHash()
	h := blake3.New(32, nil)
	h.Write(signing[:])
	h.Write(tx.Signature.Bytes)
	var sum [32]byte
	h.Sum(sum[:0])
	return sum
}

func (tx Transaction) totalInputAmount(utxo *UTXOSet) (uint64, error) {
	var total uint64
	for _, in := range tx.Inputs {
		amt, ok := utxo.Amount(in.Commitment)
		if !ok {
			return 0, xerrors.New(xerrors.KindState, "chain.Transaction.totalInputAmount", xerrors.ErrInvalidTransaction)
		}
		total += amt
	}
	return total, nil
}

func (tx Transaction) totalOutputAmount() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Amount
	}
	return total
}

// MintAmount returns the protocol-defined minting amount for a system
// transaction at the given block height. Callers validating a system
// transaction compare this against the declared output total.
func MintAmount(txType TxType, height uint64, rules MintRules) (uint64, error) {
	switch txType {
	case TxUBI:
		return rules.UBIPerBlock, nil
	case TxReward:
		return rules.RewardForHeight(height), nil
	case TxDAODistribution:
		return rules.DAODistributionPerBlock, nil
	default:
		return 0, xerrors.New(xerrors.KindState, "chain.MintAmount", xerrors.ErrInvalidTransaction)
	}
}

// MintRules parameterizes system-transaction minting so callers need
// not hardcode a schedule into validation.
type MintRules struct {
	UBIPerBlock             uint64
	DAODistributionPerBlock uint64
	RewardForHeight         func(height uint64) uint64
}

// Validate checks a transaction against the chain's current
// projections: novelty of its nullifiers, existence of its input
// commitments, proof validity, signature validity, and the fee/amount
// balance invariant. System transactions skip the input/balance checks
// and are checked against MintRules instead.
func (tx Transaction) Validate(chainID uint64, nullifiers *NullifierSet, utxo *UTXOSet, height uint64, rules MintRules) error {
	if tx.ChainID != chainID {
		return xerrors.New(xerrors.KindState, "chain.Transaction.Validate", xerrors.ErrInvalidTransaction)
	}

	if len(tx.Inputs) > 0 {
		for _, in := range tx.Inputs {
			if nullifiers.Contains(in.Nullifier) {
				return xerrors.New(xerrors.KindState, "chain.Transaction.Validate", xerrors.ErrDoubleSpend)
			}
			if !utxo.Exists(in.Commitment) {
				return xerrors.New(xerrors.KindState, "chain.Transaction.Validate", xerrors.ErrInvalidTransaction)
			}
		}
	} else {
		if !tx.Type.isSystem() {
			return xerrors.New(xerrors.KindState, "chain.Transaction.Validate", xerrors.ErrInvalidTransaction)
		}
		want, err := MintAmount(tx.Type, height, rules)
		if err != nil {
			return err
		}
		if tx.totalOutputAmount() != want {
			return xerrors.New(xerrors.KindState, "chain.Transaction.Validate", xerrors.ErrInvalidTransaction)
		}
	}

	if err := tx.Proofs.Verify(); err != nil {
		return err
	}

	signing := tx.SigningHash()
	if err := zkcrypto.Verify(tx.Sender, signing[:], tx.Signature); err != nil {
		return err
	}

	if !tx.Type.isSystem() {
		totalIn, err := tx.totalInputAmount(utxo)
		if err != nil {
			return err
		}
		if tx.Fee+tx.totalOutputAmount() > totalIn {
			return xerrors.New(xerrors.KindState, "chain.Transaction.Validate", xerrors.ErrInvalidTransaction)
		}
	}

	return nil
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
}
