package chain

import (
	"math/big"
	"testing"
)

func TestBitsTargetRoundTrip(t *testing.T) {
	original := big.NewInt(0x00ffff)
	original.Lsh(original, 8*(0x1d-3))

	bits := FromTarget(original)
	got := bits.Target()
	if got.Cmp(original) != 0 {
		t.Fatalf("round trip mismatch: got %s want %s", got, original)
	}
}

func TestMeetsTarget(t *testing.T) {
	bits := FromTarget(new(big.Int).Lsh(big.NewInt(1), 240))
	var low [32]byte
	low[31] = 1
	if !bits.MeetsTarget(low) {
		t.Fatalf("expected a near-zero hash to meet a loose target")
	}

	var high [32]byte
	for i := range high {
		high[i] = 0xff
	}
	if bits.MeetsTarget(high) {
		t.Fatalf("expected a maximal hash not to meet the target")
	}
}

func TestRetargetClampsToQuarterAndQuadruple(t *testing.T) {
	previous := FromTarget(new(big.Int).Lsh(big.NewInt(1), 220))

	// An actual timespan far below the target clamps to span/4, so
	// difficulty tightens (target shrinks) by roughly 4x, not further.
	tightened := Retarget(previous, TargetTimespan/100)
	eighthTarget := new(big.Int).Div(previous.Target(), big.NewInt(8))
	if tightened.Target().Cmp(eighthTarget) < 0 {
		t.Fatalf("retarget tightened well beyond the 4x clamp: got %s", tightened.Target())
	}
	if tightened.Target().Cmp(previous.Target()) >= 0 {
		t.Fatalf("expected a far-below-target timespan to tighten difficulty")
	}

	// An actual timespan far above the target clamps to span*4, loosening
	// difficulty by roughly 4x, but never past MinDifficultyBits.
	loosened := Retarget(previous, TargetTimespan*100)
	if loosened.Target().Cmp(MinDifficultyBits.Target()) > 0 {
		t.Fatalf("retarget loosened past the difficulty floor")
	}
}

func TestRetargetNeverLoosensPastFloor(t *testing.T) {
	previous := MinDifficultyBits
	result := Retarget(previous, TargetTimespan*4)
	if result.Target().Cmp(MinDifficultyBits.Target()) != 0 {
		t.Fatalf("expected the floor to clamp an already-minimal difficulty")
	}
}
