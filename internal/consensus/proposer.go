package consensus

import (
	"encoding/binary"
	"math"

	"lukechampine.com/blake3"
)

// SelectProposer deterministically picks a proposer for (height,
// round) from active, weighted by voting power via rendezvous hashing:
// each validator draws a uniform score from H(height‖round‖id), and
// the winner is the one minimizing score/votingPower — higher power
// makes a smaller effective score, and hence a win, more likely, while
// the outcome depends only on (height, round, validator_set) as
// required. When active is empty, bootstrap callers may propose
// freely; SelectProposer returns false in that case.
func SelectProposer(height uint64, round uint32, active []*Validator) (*Validator, bool) {
	if len(active) == 0 {
		return nil, false
	}

	var winner *Validator
	var best float64 = math.Inf(1)
	for _, v := range active {
		power := v.VotingPower()
		if power == 0 {
			continue
		}
		score := drawUniform(height, round, v.ID) / float64(power)
		if score < best {
			best = score
			winner = v
		}
	}
	if winner == nil {
		// No validator has nonzero voting power; fall back to the
		// lexicographically first active validator for determinism.
		winner = active[0]
	}
	return winner, true
}

// drawUniform maps H(height‖round‖id) onto [0, 1).
func drawUniform(height uint64, round uint32, id [32]byte) float64 {
	h := blake3.New(8, nil)
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], height)
	binary.BigEndian.PutUint32(buf[8:], round)
	h.Write(buf[:])
	h.Write(id[:])
	var sum [8]byte
	h.Sum(sum[:0])
	v := binary.BigEndian.Uint64(sum[:])
	return float64(v) / float64(math.MaxUint64)
}
