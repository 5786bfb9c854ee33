// Package consensus is the ConsensusEngine: the validator set,
// deterministic proposer selection, the three-phase BFT voting round,
// reward distribution, DAO treasury accounting, and slashing.
package consensus

import (
	"bytes"
	"math"
	"sort"
	"sync"

	"zhtp-network/internal/xerrors"
	"zhtp-network/internal/zkcrypto"
)

// MinStake is the minimum own stake (micro-units) required to join the
// validator set.
const MinStake = 1_000 * 1_000_000

// Validator is one entry in the active set.
type Validator struct {
	ID              [32]byte
	ConsensusKey    zkcrypto.PublicKey
	BLSConsensusKey []byte // serialized BLS12-381 public key, used for precommit quorum certificates
	OwnStake        uint64
	Delegated       map[[32]byte]uint64
	StoragePledge   uint64
	CommissionRate  uint8 // percent, 0-100
	Reputation      uint64
	Jailed          bool
	MissedRounds    uint32
}

// TotalStake is own stake plus every delegation.
func (v *Validator) TotalStake() uint64 {
	total := v.OwnStake
	for _, d := range v.Delegated {
		total += d
	}
	return total
}

// VotingPower is floor(sqrt(total stake)) — quadratic-voting style, so
// power grows with the square root of stake and whales do not dominate
// proposer selection and voting linearly.
func (v *Validator) VotingPower() uint64 {
	return uint64(math.Sqrt(float64(v.TotalStake())))
}

// Set is the active validator set, keyed by ID.
type Set struct {
	mu         sync.RWMutex
	validators map[[32]byte]*Validator
}

// NewSet creates an empty validator set.
func NewSet() *Set {
	return &Set{validators: make(map[[32]byte]*Validator)}
}

// Insert adds v to the set after checking the minimum-stake,
// minimum-storage-pledge, valid-key, and commission-rate-range
// invariants, and rejecting duplicates.
func (s *Set) Insert(v *Validator, minStoragePledge uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.validators[v.ID]; exists {
		return xerrors.New(xerrors.KindConsensus, "consensus.Set.Insert", xerrors.ErrDuplicateValidator)
	}
	if v.OwnStake < MinStake {
		return xerrors.New(xerrors.KindConsensus, "consensus.Set.Insert", xerrors.ErrInsufficientStake)
	}
	if v.StoragePledge < minStoragePledge {
		return xerrors.New(xerrors.KindConsensus, "consensus.Set.Insert", xerrors.ErrInsufficientStake)
	}
	if len(v.ConsensusKey.SignPub) == 0 {
		return xerrors.New(xerrors.KindConsensus, "consensus.Set.Insert", xerrors.ErrUnknownProposer)
	}
	if v.CommissionRate > 100 {
		return xerrors.New(xerrors.KindConsensus, "consensus.Set.Insert", xerrors.ErrInsufficientStake)
	}
	if v.Delegated == nil {
		v.Delegated = make(map[[32]byte]uint64)
	}
	s.validators[v.ID] = v
	return nil
}

// Active returns the non-jailed validators, in a stable order by ID so
// callers that hash over this slice get deterministic results.
func (s *Set) Active() []*Validator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Validator, 0, len(s.validators))
	for _, v := range s.validators {
		if !v.Jailed {
			out = append(out, v)
		}
	}
	sortByID(out)
	return out
}

func sortByID(vs []*Validator) {
	sort.Slice(vs, func(i, j int) bool {
		return bytes.Compare(vs[i].ID[:], vs[j].ID[:]) < 0
	})
}

// Get returns the validator with id, if present.
func (s *Set) Get(id [32]byte) (*Validator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.validators[id]
	return v, ok
}

// Jail transitions a validator to the jailed state, removing it from
// Active() until a governance proposal readmits it.
func (s *Set) Jail(id [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.validators[id]; ok {
		v.Jailed = true
	}
}

// Readmit clears a validator's jailed state. Callers are responsible
// for having checked that a governance proposal authorized this.
func (s *Set) Readmit(id [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.validators[id]; ok {
		v.Jailed = false
		v.MissedRounds = 0
	}
}
