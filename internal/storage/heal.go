package storage

import (
	"zhtp-network/internal/xerrors"
)

// Check verifies stored data against its claimed content hash,
// detecting silent corruption introduced by disk or transport faults.
func Check(ref BlockReference, data []byte) error {
	if HashChunk(data) != ref.Hash {
		return xerrors.New(xerrors.KindIntegrity, "storage.Check", xerrors.ErrHashMismatch)
	}
	return nil
}

// ShardFetcher retrieves one erasure-coded shard by (contentHash,
// shardIndex), returning an error or a nil shard when unavailable.
type ShardFetcher interface {
	FetchShard(contentHash [32]byte, index int) ([]byte, error)
}

// Heal fetches total shards and, when the set fails verification,
// rebuilds the missing ones via coder, returning the full shard set. A
// set that already verifies is returned untouched. Only missing shards
// are rebuilt: a shard that is present but corrupted is not located,
// so a set that still fails verification after reconstruction yields
// ErrUnrecoverable.
func Heal(coder *Coder, fetcher ShardFetcher, contentHash [32]byte, total int) ([][]byte, error) {
	shards := make([][]byte, total)
	for i := 0; i < total; i++ {
		s, err := fetcher.FetchShard(contentHash, i)
		if err != nil || s == nil {
			continue
		}
		shards[i] = s
	}

	ok, err := coder.Verify(shards)
	if err == nil && ok {
		return shards, nil
	}

	if err := coder.Reconstruct(shards); err != nil {
		return nil, xerrors.New(xerrors.KindIntegrity, "storage.Heal", xerrors.ErrUnrecoverable)
	}
	if ok, err := coder.Verify(shards); err != nil || !ok {
		return nil, xerrors.New(xerrors.KindIntegrity, "storage.Heal", xerrors.ErrUnrecoverable)
	}
	return shards, nil
}
