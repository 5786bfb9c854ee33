package cli

import (
	"encoding/hex"
	"fmt"

	"zhtp-network/internal/dht"
)

// parseNodeID decodes a hex-encoded 32-byte node ID.
func parseNodeID(s string) (dht.NodeID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return dht.NodeID{}, fmt.Errorf("invalid hex node id: %w", err)
	}
	if len(b) != 32 {
		return dht.NodeID{}, fmt.Errorf("node id must be 32 bytes, got %d", len(b))
	}
	var id dht.NodeID
	copy(id[:], b)
	return id, nil
}

// parseCommitment decodes a hex-encoded 32-byte output commitment.
func parseCommitment(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hex commitment: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("commitment must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
