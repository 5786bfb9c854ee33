package chain

import (
	"sync"

	"zhtp-network/internal/xerrors"
)

// ChainProofRequest asks a full peer to certify that a header at
// Height with Hash is part of the canonical chain, for an edge node
// that cannot re-derive the full transaction set itself.
type ChainProofRequest struct {
	Height uint64
	Hash   [32]byte
}

// ChainProofResponse is the full peer's answer: the header chain
// segment from a trusted checkpoint to the requested header, plus the
// peer's Valid verdict. Any state proof travels inside each Header's
// own StateProof field; the response carries no separate proof.
type ChainProofResponse struct {
	Headers []Header
	Valid   bool
}

// EdgeChain is the lightweight chain view: headers plus a tracked UTXO
// subset for addresses the node cares about. It validates chain
// continuity on header insertion but never transaction semantics —
// that is delegated to a full peer via ChainProofRequest.
type EdgeChain struct {
	mu      sync.RWMutex
	headers []Header
	tracked *UTXOSet
}

// NewEdgeChain creates an edge view starting from genesis, tracking
// UTXOs in trackedSet.
func NewEdgeChain(genesis Header, trackedSet *UTXOSet) *EdgeChain {
	return &EdgeChain{headers: []Header{genesis}, tracked: trackedSet}
}

// InsertHeader appends h after checking it links to the current tip by
// hash and height. It does not check proof-of-work or any transaction
// field.
func (e *EdgeChain) InsertHeader(h Header) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tip := e.headers[len(e.headers)-1]
	if h.PrevHash != tip.Hash() {
		return xerrors.New(xerrors.KindState, "chain.EdgeChain.InsertHeader", xerrors.ErrUnknownParent)
	}
	if h.Height != tip.Height+1 {
		return xerrors.New(xerrors.KindState, "chain.EdgeChain.InsertHeader", xerrors.ErrInvalidHeader)
	}
	e.headers = append(e.headers, h)
	return nil
}

// Tip returns the current best header.
func (e *EdgeChain) Tip() Header {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.headers[len(e.headers)-1]
}

// TrackedBalance returns the tracked-subset UTXO amount for commitment,
// without requiring full-node transaction validation.
func (e *EdgeChain) TrackedBalance(commitment [32]byte) (uint64, bool) {
	return e.tracked.Amount(commitment)
}

// ApplyProofResponse extends the header chain from a ChainProofResponse
// (which the caller fetched over the DhtRoutingCore transport). It
// rejects a response whose Valid flag is false and otherwise inserts
// each header in order; it verifies no proof itself.
func (e *EdgeChain) ApplyProofResponse(resp ChainProofResponse) error {
	if !resp.Valid {
		return xerrors.New(xerrors.KindState, "chain.EdgeChain.ApplyProofResponse", xerrors.ErrInvalidHeader)
	}
	for _, h := range resp.Headers {
		if err := e.InsertHeader(h); err != nil {
			return err
		}
	}
	return nil
}
