package consensus

import "testing"

func TestSlashDoubleSignBurnsStakeAndJails(t *testing.T) {
	s := NewSet()
	v := newTestValidator(t, 1, MinStake*100)
	if err := s.Insert(v, 0); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	before := v.OwnStake

	evidence := PrecommitEvidence{ValidatorID: v.ID, Height: 10, HashA: [32]byte{1}, HashB: [32]byte{2}}
	if err := SlashDoubleSign(s, evidence, DefaultSlashRates); err != nil {
		t.Fatalf("SlashDoubleSign failed: %v", err)
	}

	wantBurn := before * uint64(DefaultSlashRates.DoubleSign) / 100
	if v.OwnStake != before-wantBurn {
		t.Fatalf("expected stake %d after burn, got %d", before-wantBurn, v.OwnStake)
	}
	if len(s.Active()) != 0 {
		t.Fatalf("expected the validator to be jailed after a double-sign slash")
	}
}

func TestSlashDoubleSignRejectsIdenticalHashes(t *testing.T) {
	s := NewSet()
	v := newTestValidator(t, 1, MinStake)
	if err := s.Insert(v, 0); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	evidence := PrecommitEvidence{ValidatorID: v.ID, Height: 10, HashA: [32]byte{9}, HashB: [32]byte{9}}
	if err := SlashDoubleSign(s, evidence, DefaultSlashRates); err == nil {
		t.Fatalf("expected identical-hash evidence to be rejected")
	}
	if v.Jailed {
		t.Fatalf("rejected evidence must not jail the validator")
	}
}

func TestRecordMissedRoundJailsAtThreshold(t *testing.T) {
	s := NewSet()
	v := newTestValidator(t, 1, MinStake*100)
	if err := s.Insert(v, 0); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	for i := 0; i < MaxMissedRounds-1; i++ {
		if err := RecordMissedRound(s, v.ID, DefaultSlashRates); err != nil {
			t.Fatalf("RecordMissedRound failed: %v", err)
		}
	}
	if v.Jailed {
		t.Fatalf("should not jail before MaxMissedRounds is reached")
	}

	if err := RecordMissedRound(s, v.ID, DefaultSlashRates); err != nil {
		t.Fatalf("RecordMissedRound failed: %v", err)
	}
	if !v.Jailed {
		t.Fatalf("expected jailing once MaxMissedRounds consecutive misses accrue")
	}
	if v.MissedRounds != 0 {
		t.Fatalf("expected the miss counter to reset after the liveness slash")
	}
}

func TestRecordParticipationResetsMissedRounds(t *testing.T) {
	s := NewSet()
	v := newTestValidator(t, 1, MinStake)
	if err := s.Insert(v, 0); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	v.MissedRounds = 5
	RecordParticipation(s, v.ID)
	if v.MissedRounds != 0 {
		t.Fatalf("expected RecordParticipation to zero the miss counter, got %d", v.MissedRounds)
	}
}
