package dht

import (
	"context"
	"testing"
)

func TestIterativeLookupConvergesToClosestKnownPeers(t *testing.T) {
	local := NodeID{}
	table := NewTable(local, nil)

	target := idInBucket7(1)
	closeToTarget := idInBucket7(2)
	farFromTarget := idWithPrefixBit(0)

	table.Insert(Peer{ID: closeToTarget})
	table.Insert(Peer{ID: farFromTarget})

	query := func(ctx context.Context, p Peer, target NodeID) ([]Peer, error) {
		return nil, nil
	}

	result := IterativeLookup(context.Background(), table, target, query)
	if len(result) == 0 {
		t.Fatalf("expected at least one candidate from the table")
	}
	if result[0].ID != closeToTarget {
		t.Fatalf("expected the table-nearest peer first, got %x", result[0].ID)
	}
}

func TestIterativeLookupMergesDiscoveredPeers(t *testing.T) {
	local := NodeID{}
	table := NewTable(local, nil)

	target := idInBucket7(1)
	seed := idInBucket7(2)
	discovered := idInBucket7(1) // closer than seed once merged in

	table.Insert(Peer{ID: seed})

	queried := make(map[NodeID]bool)
	query := func(ctx context.Context, p Peer, target NodeID) ([]Peer, error) {
		if queried[p.ID] {
			return nil, nil
		}
		queried[p.ID] = true
		return []Peer{{ID: discovered}}, nil
	}

	result := IterativeLookup(context.Background(), table, target, query)
	found := false
	for _, p := range result {
		if p.ID == discovered {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a peer discovered mid-lookup to be merged into the result")
	}
}

func TestIterativeLookupEmptyTableReturnsEmpty(t *testing.T) {
	local := NodeID{}
	table := NewTable(local, nil)
	query := func(ctx context.Context, p Peer, target NodeID) ([]Peer, error) {
		t.Fatalf("query should never be called against an empty table")
		return nil, nil
	}
	result := IterativeLookup(context.Background(), table, idInBucket7(0), query)
	if len(result) != 0 {
		t.Fatalf("expected no results from an empty table, got %d", len(result))
	}
}
