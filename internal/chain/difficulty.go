package chain

import (
	"math/big"
	"time"
)

// Bits is a compact difficulty encoding: the top byte is a base-256
// exponent, the remaining three bytes are the mantissa — the same
// layout Bitcoin's nBits uses, pinned here per the open question of
// whether difficulty is stored compact or as a raw multiplier.
type Bits uint32

// Target expands Bits into the full-width integer a header hash must
// not exceed.
func (b Bits) Target() *big.Int {
	exp := uint(b >> 24)
	mantissa := int64(b & 0x007fffff)
	target := big.NewInt(mantissa)
	if exp <= 3 {
		return target.Rsh(target, 8*(3-exp))
	}
	return target.Lsh(target, 8*(exp-3))
}

// FromTarget compacts a full-width target back into Bits, the inverse
// of Target.
func FromTarget(target *big.Int) Bits {
	if target.Sign() <= 0 {
		return 0
	}
	raw := target.Bytes()
	exp := uint(len(raw))
	var mantissa uint32
	switch {
	case exp <= 3:
		for _, bt := range raw {
			mantissa = mantissa<<8 | uint32(bt)
		}
		mantissa <<= 8 * uint(3-exp)
	default:
		mantissa = uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	}
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exp++
	}
	return Bits(exp<<24 | mantissa)
}

// MeetsTarget reports whether headerHash, read as a big-endian
// integer, is at or below the target Bits encodes.
func (b Bits) MeetsTarget(headerHash [32]byte) bool {
	hashInt := new(big.Int).SetBytes(headerHash[:])
	return hashInt.Cmp(b.Target()) <= 0
}

// RetargetWindow is the number of blocks between difficulty
// recalculations.
const RetargetWindow = 2016

// TargetTimespan is the intended wall-clock duration of one
// RetargetWindow at the protocol's target block interval.
const TargetTimespan = RetargetWindow * 10 * time.Minute

// MinDifficultyBits is the easiest allowed target; Retarget never
// returns a Bits looser than this.
var MinDifficultyBits = FromTarget(new(big.Int).Lsh(big.NewInt(1), 236))

// Retarget computes the next window's difficulty bits from the
// previous window's actual timespan, clamped to [span/4, span*4] and
// floored at MinDifficultyBits.
func Retarget(previous Bits, actualTimespan time.Duration) Bits {
	if actualTimespan < TargetTimespan/4 {
		actualTimespan = TargetTimespan / 4
	}
	if actualTimespan > TargetTimespan*4 {
		actualTimespan = TargetTimespan * 4
	}

	newTarget := new(big.Int).Mul(previous.Target(), big.NewInt(int64(actualTimespan)))
	newTarget.Div(newTarget, big.NewInt(int64(TargetTimespan)))

	result := FromTarget(newTarget)
	if result.Target().Cmp(MinDifficultyBits.Target()) > 0 {
		return MinDifficultyBits
	}
	return result
}
