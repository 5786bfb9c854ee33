package dht

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"zhtp-network/internal/xerrors"
)

// Alpha is the iterative lookup's parallelism factor.
const Alpha = 3

// QueryFunc asks peer for peers closer to target; the transport layer
// supplies this, the lookup algorithm stays transport-agnostic.
type QueryFunc func(ctx context.Context, peer Peer, target NodeID) ([]Peer, error)

// IterativeLookup implements Kademlia's iterative closest-N search:
// query the alpha closest untried peers in parallel, merge any closer
// peers they return into the candidate set, and repeat until a round
// discovers no peer closer than the best already known. It terminates
// with the k peers closest to target.
func IterativeLookup(ctx context.Context, table *Table, target NodeID, query QueryFunc) []Peer {
	seen := make(map[NodeID]bool)
	queried := make(map[NodeID]bool)

	shortlist := table.Nearest(target, BucketSize)
	for _, p := range shortlist {
		seen[p.ID] = true
	}

	for {
		batch := pickUnqueried(shortlist, queried, Alpha)
		if len(batch) == 0 {
			break
		}

		type result struct {
			peers []Peer
		}
		results := make([]result, len(batch))
		var wg sync.WaitGroup
		for i, p := range batch {
			queried[p.ID] = true
			wg.Add(1)
			go func(i int, p Peer) {
				defer wg.Done()
				peers, err := query(ctx, p, target)
				if err != nil {
					return
				}
				results[i] = result{peers: peers}
			}(i, p)
		}
		wg.Wait()

		closestBefore := closestDistance(shortlist, target)
		for _, r := range results {
			for _, p := range r.peers {
				if seen[p.ID] {
					continue
				}
				seen[p.ID] = true
				shortlist = append(shortlist, p)
			}
		}
		sortByDistance(shortlist, target)
		if len(shortlist) > BucketSize {
			shortlist = shortlist[:BucketSize]
		}

		if closestDistance(shortlist, target) != nil && closestBefore != nil &&
			closestDistance(shortlist, target).Cmp(closestBefore) >= 0 &&
			allQueried(shortlist, queried) {
			break
		}
	}

	sortByDistance(shortlist, target)
	if len(shortlist) > BucketSize {
		shortlist = shortlist[:BucketSize]
	}
	return shortlist
}

func pickUnqueried(candidates []Peer, queried map[NodeID]bool, max int) []Peer {
	out := make([]Peer, 0, max)
	for _, p := range candidates {
		if len(out) >= max {
			break
		}
		if !queried[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func allQueried(candidates []Peer, queried map[NodeID]bool) bool {
	for _, p := range candidates {
		if !queried[p.ID] {
			return false
		}
	}
	return true
}

func sortByDistance(peers []Peer, target NodeID) {
	sort.Slice(peers, func(i, j int) bool {
		return Distance(peers[i].ID, target).Cmp(Distance(peers[j].ID, target)) < 0
	})
}

func closestDistance(peers []Peer, target NodeID) *big.Int {
	if len(peers) == 0 {
		return nil
	}
	return Distance(peers[0].ID, target)
}

// ErrLookupEmpty is returned by callers that require at least one
// result and received none.
var ErrLookupEmpty = xerrors.ErrTransportUnreachable
