package consensus

import (
	"testing"
	"time"

	bls "github.com/herumi/bls-eth-go-binary/bls"

	"zhtp-network/internal/zkcrypto"
)

// buildActiveSet inserts n validators, each carrying both a ZK
// consensus key and a BLS precommit key, and returns the set alongside
// a lookup from validator ID to its BLS secret key for signing
// precommits in tests.
func buildActiveSet(t *testing.T, n int) (*Set, map[[32]byte]*bls.SecretKey) {
	t.Helper()
	s := NewSet()
	sks := make(map[[32]byte]*bls.SecretKey, n)
	for i := 0; i < n; i++ {
		pub, priv, err := zkcrypto.GenerateKeypair()
		if err != nil {
			t.Fatalf("GenerateKeypair failed: %v", err)
		}
		t.Cleanup(priv.Destroy)
		sk, pk := newBLSKeypair(t)
		id := [32]byte{byte(i + 1)}
		v := &Validator{ID: id, ConsensusKey: pub, BLSConsensusKey: pk.Serialize(), OwnStake: MinStake, StoragePledge: 1}
		if err := s.Insert(v, 0); err != nil {
			t.Fatalf("insert validator %d failed: %v", i, err)
		}
		sks[id] = sk
	}
	return s, sks
}

func TestRoundCommitsAtThreshold(t *testing.T) {
	set, sks := buildActiveSet(t, 4) // f=1, commitAt=3
	r := NewRound(1, set, DefaultTimeouts)
	now := time.Now()
	r.Advance(now)

	blockHash := [32]byte{0xaa}
	r.ReceiveProposal(now.Add(DefaultTimeouts.Propose + time.Millisecond))
	if r.Step != StepPrevote {
		t.Fatalf("expected StepPrevote after the propose window, got %v", r.Step)
	}

	active := set.Active()
	for i := 0; i < 3; i++ {
		r.RecordPrevote(active[i].ID, blockHash, now)
	}
	if r.Step != StepPrecommit {
		t.Fatalf("expected StepPrecommit once 2f+1 prevotes are in, got %v", r.Step)
	}

	for i := 0; i < 3; i++ {
		if err := r.RecordPrecommit(active[i].ID, blockHash, sks[active[i].ID], now); err != nil {
			t.Fatalf("RecordPrecommit failed: %v", err)
		}
	}
	outcome, err := r.Resolve(now)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !outcome.Committed || outcome.BlockHash != blockHash {
		t.Fatalf("expected the round to commit blockHash, got %+v", outcome)
	}
	if len(outcome.QC.Signers) != 3 {
		t.Fatalf("expected a 3-signer quorum certificate, got %d signers", len(outcome.QC.Signers))
	}
	if err := VerifyQuorum(set, outcome.QC); err != nil {
		t.Fatalf("expected the committing round's quorum certificate to verify: %v", err)
	}
}

func TestRoundNextRoundOnTimeoutWithoutMajority(t *testing.T) {
	set, sks := buildActiveSet(t, 4)
	r := NewRound(1, set, DefaultTimeouts)
	now := time.Now()
	r.Advance(now)
	r.ReceiveProposal(now.Add(DefaultTimeouts.Propose + time.Millisecond))

	active := set.Active()
	// Force the move to precommit via timeout rather than quorum.
	r.RecordPrevote(active[0].ID, [32]byte{1}, now.Add(DefaultTimeouts.Propose+DefaultTimeouts.Prevote+time.Millisecond))
	if r.Step != StepPrecommit {
		t.Fatalf("expected StepPrecommit after prevote timeout, got %v", r.Step)
	}

	if err := r.RecordPrecommit(active[0].ID, [32]byte{1}, sks[active[0].ID], now); err != nil {
		t.Fatalf("RecordPrecommit failed: %v", err)
	}
	deadline := now.Add(DefaultTimeouts.Propose + DefaultTimeouts.Prevote + DefaultTimeouts.Precommit + time.Millisecond)
	outcome, err := r.Resolve(deadline)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !outcome.NextRound {
		t.Fatalf("expected NextRound when the precommit window closes without quorum")
	}
}

func TestByzantineThreshold(t *testing.T) {
	cases := []struct {
		n, f, commitAt int
	}{
		{4, 1, 3},
		{7, 2, 5},
		{1, 0, 1},
	}
	for _, c := range cases {
		f, commitAt := byzantineThreshold(c.n)
		if f != c.f || commitAt != c.commitAt {
			t.Fatalf("byzantineThreshold(%d) = (%d,%d), want (%d,%d)", c.n, f, commitAt, c.f, c.commitAt)
		}
	}
}
