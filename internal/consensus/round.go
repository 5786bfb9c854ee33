package consensus

import (
	"time"

	"github.com/herumi/bls-eth-go-binary/bls"

	"zhtp-network/internal/xerrors"
)

// Step is a phase in the per-height voting round.
type Step uint8

const (
	StepNewHeight Step = iota
	StepPropose
	StepPrevote
	StepPrecommit
	StepCommit
)

// Timeouts configures the per-phase deadlines; the zero value is not
// usable, use DefaultTimeouts.
type Timeouts struct {
	Propose   time.Duration
	Prevote   time.Duration
	Precommit time.Duration
}

// DefaultTimeouts matches the protocol defaults.
var DefaultTimeouts = Timeouts{
	Propose:   1000 * time.Millisecond,
	Prevote:   500 * time.Millisecond,
	Precommit: 500 * time.Millisecond,
}

// Round drives one height's voting state machine. It is not
// goroutine-safe; callers serialize access to a single Round (typical
// of a single consensus actor per height).
type Round struct {
	Height uint64
	Number uint32
	Step   Step

	prevotes      map[[32]byte][32]byte // validator ID -> proposal hash voted for
	precommits    map[[32]byte][32]byte
	precommitSigs map[[32]byte]PrecommitSignature

	validators *Set
	timeouts   Timeouts
	deadline   time.Time
}

// NewRound begins a round at StepNewHeight.
func NewRound(height uint64, validators *Set, timeouts Timeouts) *Round {
	return &Round{
		Height:        height,
		validators:    validators,
		timeouts:      timeouts,
		prevotes:      make(map[[32]byte][32]byte),
		precommits:    make(map[[32]byte][32]byte),
		precommitSigs: make(map[[32]byte]PrecommitSignature),
		Step:          StepNewHeight,
	}
}

// byzantineThreshold returns f (the max tolerated faulty validators)
// and the commit threshold 2f+1, given n active validators.
func byzantineThreshold(n int) (f, commitAt int) {
	f = (n - 1) / 3
	return f, 2*f + 1
}

// Advance moves StepNewHeight to StepPropose, recording the propose
// deadline.
func (r *Round) Advance(now time.Time) {
	if r.Step == StepNewHeight {
		r.Step = StepPropose
		r.deadline = now.Add(r.timeouts.Propose)
	}
}

// ReceiveProposal transitions Propose -> Prevote, either because a
// proposal arrived or the propose timeout elapsed (an elapsed timeout
// with no proposal still advances the round, voting for a nil block).
func (r *Round) ReceiveProposal(now time.Time) {
	if r.Step != StepPropose {
		return
	}
	r.Step = StepPrevote
	r.deadline = now.Add(r.timeouts.Prevote)
}

// RecordPrevote records a prevote from validator id for proposalHash,
// then moves Prevote -> Precommit once 2f+1 prevotes are in or the
// prevote timeout elapses.
func (r *Round) RecordPrevote(id [32]byte, proposalHash [32]byte, now time.Time) {
	if r.Step != StepPrevote {
		return
	}
	r.prevotes[id] = proposalHash
	_, commitAt := byzantineThreshold(len(r.validators.Active()))
	if len(r.prevotes) >= commitAt || !now.Before(r.deadline) {
		r.Step = StepPrecommit
		r.deadline = now.Add(r.timeouts.Precommit)
	}
}

// RecordPrecommit records a precommit from validator id for blockHash,
// signing the (height, blockHash) pair with the validator's BLS key so
// Resolve can fold a committing round's votes into a QuorumCertificate
// without a separate signing pass.
func (r *Round) RecordPrecommit(id [32]byte, blockHash [32]byte, sk *bls.SecretKey, now time.Time) error {
	if r.Step != StepPrecommit {
		return nil
	}
	sig, err := SignPrecommit(sk, r.Height, blockHash)
	if err != nil {
		return err
	}
	sig.ValidatorID = id
	r.precommits[id] = blockHash
	r.precommitSigs[id] = sig
	return nil
}

// Outcome describes what a round produced once Precommit's window
// closes.
type Outcome struct {
	Committed bool
	BlockHash [32]byte
	NextRound bool
	QC        QuorumCertificate
}

// Resolve evaluates the precommit tally against the 2f+1 threshold.
// Call once the precommit deadline has passed or every active
// validator has voted.
func (r *Round) Resolve(now time.Time) (Outcome, error) {
	if r.Step != StepPrecommit {
		return Outcome{}, xerrors.New(xerrors.KindConsensus, "consensus.Round.Resolve", xerrors.ErrNotEnoughVotes)
	}
	active := r.validators.Active()
	_, commitAt := byzantineThreshold(len(active))

	tally := make(map[[32]byte]int)
	for _, hash := range r.precommits {
		tally[hash]++
	}
	for hash, count := range tally {
		if count >= commitAt {
			r.Step = StepCommit
			var sigs []PrecommitSignature
			for id, voted := range r.precommits {
				if voted == hash {
					sigs = append(sigs, r.precommitSigs[id])
				}
			}
			qc := AggregateQuorum(r.Height, hash, sigs)
			return Outcome{Committed: true, BlockHash: hash, QC: qc}, nil
		}
	}
	if !now.Before(r.deadline) {
		return Outcome{NextRound: true}, nil
	}
	return Outcome{}, xerrors.New(xerrors.KindConsensus, "consensus.Round.Resolve", xerrors.ErrNotEnoughVotes)
}
