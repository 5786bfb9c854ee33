package storage

import (
	"bytes"
	"compress/gzip"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"zhtp-network/internal/xerrors"
)

// Algorithm selects a chunk's compression codec.
type Algorithm uint8

const (
	CompressNone Algorithm = iota
	CompressLZ4
	CompressZstd
	CompressGzip
)

func (a Algorithm) String() string {
	switch a {
	case CompressNone:
		return "none"
	case CompressLZ4:
		return "lz4"
	case CompressZstd:
		return "zstd"
	case CompressGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// CompressionStats accumulates codec effectiveness across calls.
type CompressionStats struct {
	BytesIn          uint64
	BytesOut         uint64
	Operations       uint64
}

// Ratio reports the cumulative space saved, 0 meaning no reduction.
func (s CompressionStats) Ratio() float64 {
	if s.BytesIn == 0 {
		return 0
	}
	return 1 - float64(s.BytesOut)/float64(s.BytesIn)
}

// Compressor applies a pluggable codec to chunk data and tracks
// aggregate effectiveness. Codec instances (the zstd encoder in
// particular) are expensive to create, so one Compressor keeps a
// single long-lived zstd encoder/decoder pair; gzip builds a fresh
// writer or reader on each call.
type Compressor struct {
	mu    sync.Mutex
	stats CompressionStats

	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
}

// NewCompressor builds a Compressor, creating its zstd encoder and
// decoder up front.
func NewCompressor() (*Compressor, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.NewCompressor", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.NewCompressor", err)
	}
	return &Compressor{zstdEnc: enc, zstdDec: dec}, nil
}

// Compress encodes data under algo, recording the operation's size
// delta in Stats.
func (c *Compressor) Compress(algo Algorithm, data []byte) ([]byte, error) {
	var out []byte
	var err error
	switch algo {
	case CompressNone:
		out = data
	case CompressZstd:
		out = c.zstdEnc.EncodeAll(data, nil)
	case CompressGzip:
		out, err = gzipCompress(data)
	case CompressLZ4:
		// No LZ4 implementation is wired into this build; no library
		// in the dependency set provides it. Callers wanting LZ4
		// should fall back to Zstd.
		return nil, xerrors.New(xerrors.KindResource, "storage.Compressor.Compress", xerrors.ErrNotAvailable)
	default:
		return nil, xerrors.New(xerrors.KindInput, "storage.Compressor.Compress", xerrors.ErrCompressionError)
	}
	if err != nil {
		return nil, xerrors.New(xerrors.KindResource, "storage.Compressor.Compress", err)
	}
	c.mu.Lock()
	c.stats.BytesIn += uint64(len(data))
	c.stats.BytesOut += uint64(len(out))
	c.stats.Operations++
	c.mu.Unlock()
	return out, nil
}

// Decompress reverses Compress for algo.
func (c *Compressor) Decompress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case CompressNone:
		return data, nil
	case CompressZstd:
		out, err := c.zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, xerrors.New(xerrors.KindIntegrity, "storage.Compressor.Decompress", xerrors.ErrCompressionError)
		}
		return out, nil
	case CompressGzip:
		return gzipDecompress(data)
	case CompressLZ4:
		return nil, xerrors.New(xerrors.KindResource, "storage.Compressor.Decompress", xerrors.ErrNotAvailable)
	default:
		return nil, xerrors.New(xerrors.KindInput, "storage.Compressor.Decompress", xerrors.ErrCompressionError)
	}
}

// Stats returns a snapshot of cumulative compression effectiveness.
func (c *Compressor) Stats() CompressionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.New(xerrors.KindIntegrity, "storage.gzipDecompress", xerrors.ErrCompressionError)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.New(xerrors.KindIntegrity, "storage.gzipDecompress", xerrors.ErrCompressionError)
	}
	return out, nil
}
