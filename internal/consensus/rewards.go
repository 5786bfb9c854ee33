package consensus

import "math"

// WorkType is a category of useful work a validator may be credited
// for beyond block production.
type WorkType uint8

const (
	WorkRouting WorkType = iota
	WorkStorage
	WorkComputation
	WorkValidation
	WorkBridge
)

// WorkMultipliers scales a validator's work units into a bonus,
// per work type.
var WorkMultipliers = map[WorkType]float64{
	WorkRouting:     1.0,
	WorkStorage:     1.2,
	WorkComputation: 1.5,
	WorkValidation:  1.1,
	WorkBridge:      1.3,
}

// RewardInputs are the per-validator quantities a single block's
// reward calculation needs.
type RewardInputs struct {
	Stake          uint64
	StorageGB      uint64
	WorkUnits      map[WorkType]uint64
	Reputation     uint64 // 0-10000
	BaseRewardPool uint64
}

// storageBonusCap limits the storage bonus to 20% of the base reward.
const storageBonusCap = 0.20

// Reward computes a validator's total reward for one committed block:
// base (sqrt of stake) + storage bonus (log-scaled, capped) + work
// bonus (per-type multiplier) + participation bonus (reputation/10000).
func Reward(in RewardInputs) uint64 {
	base := math.Sqrt(float64(in.Stake)) * float64(in.BaseRewardPool) / 1_000_000

	storageBonus := 0.0
	if in.StorageGB > 0 {
		storageBonus = math.Log2(float64(in.StorageGB) + 1)
		if cap := base * storageBonusCap; storageBonus > cap {
			storageBonus = cap
		}
	}

	workBonus := 0.0
	for wt, units := range in.WorkUnits {
		workBonus += float64(units) * WorkMultipliers[wt]
	}

	participationBonus := base * float64(in.Reputation) / 10000

	total := base + storageBonus + workBonus + participationBonus
	if total < 0 {
		return 0
	}
	return uint64(total)
}

// DelegatorShare computes one delegator's share of a validator's
// reward pool: reward_pool * delegation / total_stake, less the
// validator's commission on that share. The commission amount is
// returned separately so callers can credit it to the validator.
func DelegatorShare(rewardPool, delegationAmount, totalStake uint64, commissionRatePercent uint8) (delegatorAmount, commissionAmount uint64) {
	if totalStake == 0 {
		return 0, 0
	}
	gross := rewardPool * delegationAmount / totalStake
	commission := gross * uint64(commissionRatePercent) / 100
	return gross - commission, commission
}
