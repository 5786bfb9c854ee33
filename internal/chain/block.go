package chain

import (
	"time"

	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
	"zhtp-network/internal/zkproof"
)

const (
	// MaxBlockSize bounds a block's total serialized size.
	MaxBlockSize = 1 << 20
	// MaxTransactionsPerBlock bounds transaction count.
	MaxTransactionsPerBlock = 4096
	// MaxFutureDrift is the allowed clock skew ahead of wall-clock for
	// an incoming block's timestamp.
	MaxFutureDrift = 2 * time.Minute
)

// Header is the fixed-size portion of a block used for chain linkage
// and proof-of-work verification.
type Header struct {
	PrevHash       [32]byte
	Height         uint64
	Timestamp      time.Time
	MerkleRoot     [32]byte
	DifficultyBits Bits
	Nonce          uint64
	StateProof     zkproof.Proof
}

// Hash is the header's identity, used as the PrevHash of its child and
// as the value compared against the difficulty target.
func (h Header) Hash() [32]byte {
	hasher := blake3.New(32, nil)
	hasher.Write(h.PrevHash[:])
	var buf [8]byte
	putU64(buf[:], h.Height)
	hasher.Write(buf[:])
	putU64(buf[:], uint64(h.Timestamp.UnixNano()))
	hasher.Write(buf[:])
	hasher.Write(h.MerkleRoot[:])
	putU32(buf[:4], uint32(h.DifficultyBits))
	hasher.Write(buf[:4])
	putU64(buf[:], h.Nonce)
	hasher.Write(buf[:])
	var sum [32]byte
	hasher.Sum(sum[:0])
	return sum
}

// Block is a header plus its ordered transaction list.
type Block struct {
	Header       Header
	Transactions []Transaction
}

func merkleRootOf(txs []Transaction) [32]byte {
	if len(txs) == 0 {
		return blake3.Sum256(nil)
	}
	leaves := make([][32]byte, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.Hash()
	}
	tree, err := zkproof.BuildTree(leaves)
	if err != nil {
		return blake3.Sum256(nil)
	}
	return tree.Root()
}

// Tip is the minimal view of chain state Validate needs: the current
// best header, its height, and its timestamp.
type Tip struct {
	Hash      [32]byte
	Height    uint64
	Timestamp time.Time
}

// Validate runs the seven block-acceptance checks in order, returning
// on the first failure. It does not mutate nullifier/UTXO state —
// callers apply the block only after Validate succeeds.
func (b Block) Validate(tip Tip, chainID uint64, proofOfWork bool, nullifiers *NullifierSet, utxo *UTXOSet, rules MintRules, now time.Time) error {
	if b.Header.PrevHash != tip.Hash {
		return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrUnknownParent)
	}
	if b.Header.Height != tip.Height+1 {
		return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrInvalidHeader)
	}
	if b.Header.Timestamp.Before(tip.Timestamp) || b.Header.Timestamp.After(now.Add(MaxFutureDrift)) {
		return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrTimestampOutOfRange)
	}
	if merkleRootOf(b.Transactions) != b.Header.MerkleRoot {
		return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrInvalidHeader)
	}
	if proofOfWork {
		if !b.Header.DifficultyBits.MeetsTarget(b.Header.Hash()) {
			return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrInvalidHeader)
		}
	}

	seen := make(map[[32]byte]struct{}, len(b.Transactions))
	for _, tx := range b.Transactions {
		if err := tx.Validate(chainID, nullifiers, utxo, b.Header.Height, rules); err != nil {
			return err
		}
		for _, in := range tx.Inputs {
			if _, dup := seen[in.Nullifier]; dup {
				return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrDoubleSpend)
			}
			seen[in.Nullifier] = struct{}{}
		}
	}

	if b.SerializedSize() > MaxBlockSize {
		return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrSizeExceeded)
	}
	if len(b.Transactions) > MaxTransactionsPerBlock {
		return xerrors.New(xerrors.KindState, "chain.Block.Validate", xerrors.ErrSizeExceeded)
	}
	return nil
}

// SerializedSize approximates the block's wire size without a full
// codec pass, for the size-bound check; a real wire encoder in
// internal/mesh/internal/dht produces the exact bytes transmitted.
func (b Block) SerializedSize() int {
	const headerSize = 32 + 8 + 8 + 32 + 4 + 8
	size := headerSize
	for _, tx := range b.Transactions {
		size += 4 + 8 + 1
		size += len(tx.Inputs) * 64
		size += len(tx.Outputs) * 40
		size += 8
		size += len(tx.Signature.Bytes)
		size += len(tx.Sender.SignPub) + len(tx.Sender.KEMPub)
	}
	return size
}

// Apply commits a validated block's transactions into the nullifier
// and UTXO projections. Callers must have already run Validate.
func (b Block) Apply(nullifiers *NullifierSet, utxo *UTXOSet) {
	for _, tx := range b.Transactions {
		for _, in := range tx.Inputs {
			nullifiers.Add(in.Nullifier)
			utxo.Remove(in.Commitment)
		}
		for _, out := range tx.Outputs {
			utxo.Add(out.Commitment, out.Amount)
		}
	}
}
