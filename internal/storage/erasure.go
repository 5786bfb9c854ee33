package storage

import (
	"github.com/klauspost/reedsolomon"

	"zhtp-network/internal/xerrors"
)

// ErasureConfig sets the Reed–Solomon shard split: DataShards carry
// content, ParityShards tolerate up to ParityShards missing or
// corrupted shards without data loss.
type ErasureConfig struct {
	DataShards   int
	ParityShards int
}

// DefaultErasureConfig matches the protocol's baseline redundancy.
var DefaultErasureConfig = ErasureConfig{DataShards: 10, ParityShards: 4}

// Coder erasure-codes chunk data using Reed–Solomon.
type Coder struct {
	cfg ErasureConfig
	enc reedsolomon.Encoder
}

// NewCoder builds a Coder for cfg.
func NewCoder(cfg ErasureConfig) (*Coder, error) {
	enc, err := reedsolomon.New(cfg.DataShards, cfg.ParityShards)
	if err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.NewCoder", err)
	}
	return &Coder{cfg: cfg, enc: enc}, nil
}

// Encode splits data into DataShards data shards plus ParityShards
// parity shards.
func (c *Coder) Encode(data []byte) ([][]byte, error) {
	shards, err := c.enc.Split(data)
	if err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.Coder.Encode", err)
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.Coder.Encode", err)
	}
	return shards, nil
}

// Reconstruct repairs missing shards in place. shards[i] == nil marks
// a missing or corrupt shard; up to ParityShards of them may be
// missing and still be recovered.
func (c *Coder) Reconstruct(shards [][]byte) error {
	missing := 0
	for _, s := range shards {
		if s == nil {
			missing++
		}
	}
	if missing > c.cfg.ParityShards {
		return xerrors.New(xerrors.KindIntegrity, "storage.Coder.Reconstruct", xerrors.ErrInsufficientShards)
	}
	if err := c.enc.Reconstruct(shards); err != nil {
		return xerrors.New(xerrors.KindIntegrity, "storage.Coder.Reconstruct", err)
	}
	return nil
}

// Verify reports whether shards' parity is internally consistent.
func (c *Coder) Verify(shards [][]byte) (bool, error) {
	ok, err := c.enc.Verify(shards)
	if err != nil {
		return false, xerrors.New(xerrors.KindIntegrity, "storage.Coder.Verify", err)
	}
	return ok, nil
}

// Join reassembles the original data from a complete, ordered shard
// set totaling at least outSize bytes of data shards.
func (c *Coder) Join(shards [][]byte, outSize int) ([]byte, error) {
	var buf writerBuffer
	if err := c.enc.Join(&buf, shards, outSize); err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.Coder.Join", err)
	}
	return buf.data, nil
}

// writerBuffer adapts an io.Writer sink for reedsolomon.Join, which
// wants a writer rather than returning a slice directly.
type writerBuffer struct {
	data []byte
}

func (w *writerBuffer) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}
