package consensus

import (
	"zhtp-network/internal/xerrors"
)

// SlashRates configures the stake fraction burned per fault type, as
// percentages of the validator's own stake (delegations are not burned).
type SlashRates struct {
	DoubleSign uint8
	Liveness   uint8
}

// DefaultSlashRates matches the protocol defaults.
var DefaultSlashRates = SlashRates{DoubleSign: 5, Liveness: 1}

// MaxMissedRounds is how many consecutive missed rounds constitutes a
// liveness fault.
const MaxMissedRounds = 50

// PrecommitEvidence is two distinct precommits from the same validator
// at the same height, the evidence double-sign slashing requires.
type PrecommitEvidence struct {
	ValidatorID [32]byte
	Height      uint64
	HashA       [32]byte
	HashB       [32]byte
}

// SlashDoubleSign burns DoubleSign percent of the validator's own
// stake and jails it. evidence.HashA and HashB must differ — a caller
// passing two identical hashes has not shown a double-sign and this
// call is rejected to avoid jailing a validator on manufactured
// evidence.
func SlashDoubleSign(set *Set, evidence PrecommitEvidence, rates SlashRates) error {
	if evidence.HashA == evidence.HashB {
		return xerrors.New(xerrors.KindConsensus, "consensus.SlashDoubleSign", xerrors.ErrDoubleSign)
	}
	v, ok := set.Get(evidence.ValidatorID)
	if !ok {
		return xerrors.New(xerrors.KindConsensus, "consensus.SlashDoubleSign", xerrors.ErrUnknownProposer)
	}
	burn := v.OwnStake * uint64(rates.DoubleSign) / 100
	v.OwnStake -= burn
	set.Jail(v.ID)
	return nil
}

// RecordMissedRound increments a validator's consecutive-miss counter
// and slashes for liveness once MaxMissedRounds is reached, jailing it
// and resetting the counter.
func RecordMissedRound(set *Set, id [32]byte, rates SlashRates) error {
	v, ok := set.Get(id)
	if !ok {
		return xerrors.New(xerrors.KindConsensus, "consensus.RecordMissedRound", xerrors.ErrUnknownProposer)
	}
	v.MissedRounds++
	if v.MissedRounds >= MaxMissedRounds {
		burn := v.OwnStake * uint64(rates.Liveness) / 100
		v.OwnStake -= burn
		v.MissedRounds = 0
		set.Jail(v.ID)
	}
	return nil
}

// RecordParticipation resets a validator's missed-round counter on
// successful participation in a round.
func RecordParticipation(set *Set, id [32]byte) {
	if v, ok := set.Get(id); ok {
		v.MissedRounds = 0
	}
}
