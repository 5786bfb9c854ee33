package chain

import "testing"

func txWithNullifier(n byte, fee uint64) Transaction {
	return Transaction{
		Inputs: []Input{{Nullifier: [32]byte{n}}},
		Fee:    fee,
	}
}

func TestMempoolPicksByPriorityThenFee(t *testing.T) {
	m := NewMempool(10)
	lowID, err := m.Add(txWithNullifier(1, 1), PriorityLow, 1.0)
	if err != nil {
		t.Fatalf("Add low failed: %v", err)
	}
	if lowID.String() == "" {
		t.Fatalf("expected a non-empty admission id")
	}
	if _, err := m.Add(txWithNullifier(2, 1), PriorityUrgent, 1.0); err != nil {
		t.Fatalf("Add urgent failed: %v", err)
	}
	if _, err := m.Add(txWithNullifier(3, 5), PriorityNormal, 5.0); err != nil {
		t.Fatalf("Add normal failed: %v", err)
	}

	picked := m.Pick(3)
	if len(picked) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(picked))
	}
	if picked[0].Inputs[0].Nullifier != [32]byte{2} {
		t.Fatalf("expected the urgent transaction first")
	}
	if picked[1].Inputs[0].Nullifier != [32]byte{3} {
		t.Fatalf("expected the higher-fee normal transaction before the low-priority one")
	}
}

func TestMempoolRBFRequiresFeeBump(t *testing.T) {
	m := NewMempool(10)
	tx := txWithNullifier(9, 10)
	if _, err := m.Add(tx, PriorityNormal, 10.0); err != nil {
		t.Fatalf("initial Add failed: %v", err)
	}

	replacement := txWithNullifier(9, 20)
	if _, err := m.Add(replacement, PriorityNormal, 10.5); err == nil {
		t.Fatalf("expected replacement below 110%% fee bump to be rejected")
	}

	if _, err := m.Add(replacement, PriorityNormal, 11.5); err != nil {
		t.Fatalf("expected replacement at >=110%% fee bump to succeed: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected the replacement to have replaced the original, got len=%d", m.Len())
	}
}

func TestMempoolEvictsWorstOnOverCapacity(t *testing.T) {
	m := NewMempool(1)
	if _, err := m.Add(txWithNullifier(1, 1), PriorityLow, 1.0); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := m.Add(txWithNullifier(2, 1), PriorityUrgent, 1.0); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected capacity to be enforced, got len=%d", m.Len())
	}
	picked := m.Pick(1)
	if picked[0].Inputs[0].Nullifier != [32]byte{2} {
		t.Fatalf("expected the low-priority entry to have been evicted")
	}
}
