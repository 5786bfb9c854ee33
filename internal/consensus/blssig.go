package consensus

import (
	"encoding/binary"
	"sync"

	"github.com/herumi/bls-eth-go-binary/bls"

	"zhtp-network/internal/xerrors"
)

var (
	blsInitOnce sync.Once
	blsInitErr  error
)

// ensureBLSInit initializes the BLS12-381 pairing curve exactly once
// per process, in the Ethereum-compatible signature mode (so imported
// validator keys stay portable with other chains using the same
// curve).
func ensureBLSInit() error {
	blsInitOnce.Do(func() {
		blsInitErr = bls.Init(bls.BLS12_381)
		if blsInitErr == nil {
			blsInitErr = bls.SetETHmode(bls.EthModeDraft07)
		}
	})
	return blsInitErr
}

// PrecommitSignature is one validator's BLS signature over a given
// height and block hash.
type PrecommitSignature struct {
	ValidatorID [32]byte
	Sig         bls.Sign
}

// QuorumCertificate aggregates the precommit signatures of the
// validators that carried a round to commit into a single signature,
// so the committed block can carry proof of quorum without storing one
// signature per voter.
type QuorumCertificate struct {
	Height    uint64
	BlockHash [32]byte
	Signers   [][32]byte
	Aggregate bls.Sign
}

func precommitMessage(height uint64, blockHash [32]byte) []byte {
	msg := make([]byte, 8+32)
	binary.BigEndian.PutUint64(msg[:8], height)
	copy(msg[8:], blockHash[:])
	return msg
}

// SignPrecommit signs the (height, blockHash) precommit message with a
// validator's BLS secret key.
func SignPrecommit(sk *bls.SecretKey, height uint64, blockHash [32]byte) (PrecommitSignature, error) {
	if err := ensureBLSInit(); err != nil {
		return PrecommitSignature{}, xerrors.New(xerrors.KindCrypto, "consensus.SignPrecommit", err)
	}
	sig := sk.SignByte(precommitMessage(height, blockHash))
	return PrecommitSignature{Sig: *sig}, nil
}

// AggregateQuorum combines precommit signatures that already satisfy a
// round's 2f+1 threshold into one QuorumCertificate. Callers are
// responsible for having checked the threshold before calling this —
// AggregateQuorum does not know the active validator set size.
func AggregateQuorum(height uint64, blockHash [32]byte, sigs []PrecommitSignature) QuorumCertificate {
	raw := make([]bls.Sign, len(sigs))
	signers := make([][32]byte, len(sigs))
	for i, s := range sigs {
		raw[i] = s.Sig
		signers[i] = s.ValidatorID
	}
	var agg bls.Sign
	agg.Aggregate(raw)
	return QuorumCertificate{Height: height, BlockHash: blockHash, Signers: signers, Aggregate: agg}
}

// VerifyQuorum checks qc's aggregate signature against the consensus
// keys of its claimed signers and rejects it outright if the signer
// count does not reach the active set's current 2f+1 threshold — a
// stale or forged signer list cannot be re-checked into validity just
// because the signatures verify.
func VerifyQuorum(set *Set, qc QuorumCertificate) error {
	if err := ensureBLSInit(); err != nil {
		return xerrors.New(xerrors.KindCrypto, "consensus.VerifyQuorum", err)
	}
	_, commitAt := byzantineThreshold(len(set.Active()))
	if len(qc.Signers) < commitAt {
		return xerrors.New(xerrors.KindConsensus, "consensus.VerifyQuorum", xerrors.ErrNotEnoughVotes)
	}

	pubs := make([]bls.PublicKey, 0, len(qc.Signers))
	for _, id := range qc.Signers {
		v, ok := set.Get(id)
		if !ok {
			return xerrors.New(xerrors.KindConsensus, "consensus.VerifyQuorum", xerrors.ErrUnknownProposer)
		}
		var pk bls.PublicKey
		if err := pk.Deserialize(v.BLSConsensusKey); err != nil {
			return xerrors.New(xerrors.KindCrypto, "consensus.VerifyQuorum", err)
		}
		pubs = append(pubs, pk)
	}

	msg := precommitMessage(qc.Height, qc.BlockHash)
	if !qc.Aggregate.FastAggregateVerify(pubs, msg) {
		return xerrors.New(xerrors.KindCrypto, "consensus.VerifyQuorum", xerrors.ErrInvalidSignature)
	}
	return nil
}
