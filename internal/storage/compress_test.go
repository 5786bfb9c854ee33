package storage

import (
	"bytes"
	"testing"
)

func repetitiveData() []byte {
	return bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 500)
}

func TestCompressorZstdRoundTrip(t *testing.T) {
	c, err := NewCompressor()
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	data := repetitiveData()

	out, err := c.Compress(CompressZstd, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(out) >= len(data) {
		t.Fatalf("expected zstd to shrink highly repetitive data")
	}

	back, err := c.Decompress(CompressZstd, out)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestCompressorGzipRoundTrip(t *testing.T) {
	c, err := NewCompressor()
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	data := repetitiveData()

	out, err := c.Compress(CompressGzip, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	back, err := c.Decompress(CompressGzip, out)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Fatalf("round trip mismatch")
	}
}

func TestCompressorNoneIsIdentity(t *testing.T) {
	c, err := NewCompressor()
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	data := []byte("passthrough")
	out, err := c.Compress(CompressNone, data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("expected CompressNone to pass data through unchanged")
	}
}

func TestCompressorLZ4IsUnavailable(t *testing.T) {
	c, err := NewCompressor()
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	if _, err := c.Compress(CompressLZ4, []byte("x")); err == nil {
		t.Fatalf("expected LZ4 to be rejected as unavailable")
	}
}

func TestCompressorStatsAccumulate(t *testing.T) {
	c, err := NewCompressor()
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	data := repetitiveData()
	if _, err := c.Compress(CompressZstd, data); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	stats := c.Stats()
	if stats.Operations != 1 || stats.BytesIn != uint64(len(data)) {
		t.Fatalf("unexpected stats after one compression: %+v", stats)
	}
	if stats.Ratio() <= 0 {
		t.Fatalf("expected a positive compression ratio for repetitive data, got %f", stats.Ratio())
	}
}
