package consensus

import (
	"sync"

	"github.com/google/uuid"

	"zhtp-network/internal/xerrors"
)

// TreasuryFeeRate is the mandatory DAO fee taken from every
// non-exempt transaction, expressed as a percent.
const TreasuryFeeRate = 2

// UBISplitPercent and WelfareSplitPercent partition incoming DAO fees.
const (
	UBISplitPercent     = 60
	WelfareSplitPercent = 40
)

// Treasury tracks allocated-but-undistributed DAO funds. Distribution
// records are append-only and the allocated counters can never go
// negative: RecordDistribution fails closed rather than allowing an
// allocation to underflow, which is what makes double-distribution
// structurally impossible rather than merely checked.
type Treasury struct {
	mu              sync.Mutex
	ubiAllocated    uint64
	welfareAllocated uint64
	distributions   []Distribution
}

// Distribution is one append-only record of funds leaving the
// treasury.
type Distribution struct {
	Kind      DistributionKind
	Recipient [32]byte
	Amount    uint64
}

// DistributionKind tags what a Distribution paid for.
type DistributionKind uint8

const (
	DistributionUBI DistributionKind = iota
	DistributionWelfare
)

// NewTreasury creates an empty treasury.
func NewTreasury() *Treasury {
	return &Treasury{}
}

// Contribute splits fee 60/40 into the UBI and welfare allocations per
// TreasuryFeeRate's contract — fee is assumed to already be the 2%
// share taken from a transaction, not the transaction's full amount.
func (t *Treasury) Contribute(fee uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ubiAllocated += fee * UBISplitPercent / 100
	t.welfareAllocated += fee * WelfareSplitPercent / 100
}

// UBIPerCitizen returns the per-citizen UBI allocation given the
// current citizen count.
func (t *Treasury) UBIPerCitizen(citizenCount uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if citizenCount == 0 {
		return 0
	}
	return t.ubiAllocated / citizenCount
}

// WelfareAvailable returns the funds currently available for welfare
// distribution.
func (t *Treasury) WelfareAvailable() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.welfareAllocated
}

// RecordDistribution decrements the relevant allocation by amount and
// appends the record, or fails with TreasuryUnderflow without mutating
// state if amount exceeds what is allocated.
func (t *Treasury) RecordDistribution(kind DistributionKind, recipient [32]byte, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case DistributionUBI:
		if amount > t.ubiAllocated {
			return xerrors.New(xerrors.KindConsensus, "consensus.Treasury.RecordDistribution", xerrors.ErrTreasuryUnderflow)
		}
		t.ubiAllocated -= amount
	case DistributionWelfare:
		if amount > t.welfareAllocated {
			return xerrors.New(xerrors.KindConsensus, "consensus.Treasury.RecordDistribution", xerrors.ErrTreasuryUnderflow)
		}
		t.welfareAllocated -= amount
	default:
		return xerrors.New(xerrors.KindConsensus, "consensus.Treasury.RecordDistribution", xerrors.ErrTreasuryUnderflow)
	}

	t.distributions = append(t.distributions, Distribution{Kind: kind, Recipient: recipient, Amount: amount})
	return nil
}

// Distributions returns the append-only distribution log.
func (t *Treasury) Distributions() []Distribution {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Distribution(nil), t.distributions...)
}

// Proposal is a governance action awaiting a vote, e.g. readmitting a
// jailed validator. TrackingID is assigned at admission and never
// recomputed, so a client can follow a proposal across the log even if
// its content-derived ID were ever to collide or be resubmitted.
type Proposal struct {
	ID           [32]byte
	TrackingID   uuid.UUID
	Description  string
	VotesFor     uint64
	VotesAgainst uint64
	Resolved     bool
}

// DAO tracks active governance proposals and their vote tallies.
type DAO struct {
	mu        sync.Mutex
	proposals map[[32]byte]*Proposal
}

// NewDAO creates an empty governance tracker.
func NewDAO() *DAO {
	return &DAO{proposals: make(map[[32]byte]*Proposal)}
}

// Propose registers a new proposal, returning the tracking identifier
// assigned to it.
func (d *DAO) Propose(id [32]byte, description string) uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	tracking := uuid.New()
	d.proposals[id] = &Proposal{ID: id, TrackingID: tracking, Description: description}
	return tracking
}

// Vote records votingPower for or against proposal id.
func (d *DAO) Vote(id [32]byte, votingPower uint64, inFavor bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.proposals[id]
	if !ok || p.Resolved {
		return xerrors.New(xerrors.KindConsensus, "consensus.DAO.Vote", xerrors.ErrUnknownProposer)
	}
	if inFavor {
		p.VotesFor += votingPower
	} else {
		p.VotesAgainst += votingPower
	}
	return nil
}

// Resolve marks a proposal resolved and reports whether it passed
// (strict majority of recorded votes).
func (d *DAO) Resolve(id [32]byte) (passed bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.proposals[id]
	if !ok || p.Resolved {
		return false, xerrors.New(xerrors.KindConsensus, "consensus.DAO.Resolve", xerrors.ErrUnknownProposer)
	}
	p.Resolved = true
	return p.VotesFor > p.VotesAgainst, nil
}
