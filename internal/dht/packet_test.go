package dht

import (
	"testing"
	"time"
)

func TestHeaderMarshalUnmarshalRoundTrip(t *testing.T) {
	h := Header{
		Version:    ProtocolVersion,
		Operation:  OpStore,
		PacketID:   [16]byte{1, 2, 3},
		SenderID:   NodeID{4, 5},
		TargetID:   NodeID{6, 7},
		PayloadLen: 42,
		Timestamp:  time.Unix(1_700_000_000, 0),
	}

	buf := h.Marshal()
	got, err := UnmarshalHeader(buf)
	if err != nil {
		t.Fatalf("UnmarshalHeader failed: %v", err)
	}
	if got.Version != h.Version || got.Operation != h.Operation || got.PacketID != h.PacketID ||
		got.SenderID != h.SenderID || got.TargetID != h.TargetID || got.PayloadLen != h.PayloadLen {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, h)
	}
	if !got.Timestamp.Equal(h.Timestamp) {
		t.Fatalf("timestamp mismatch: got %v want %v", got.Timestamp, h.Timestamp)
	}
}

func TestUnmarshalHeaderRejectsUnknownVersion(t *testing.T) {
	h := Header{Version: ProtocolVersion + 1}
	buf := h.Marshal()
	if _, err := UnmarshalHeader(buf); err == nil {
		t.Fatalf("expected an unsupported protocol version to be rejected")
	}
}

func TestNewPacketRejectsOversizedPayload(t *testing.T) {
	payload := make([]byte, MaxPacketSize)
	if _, err := NewPacket(Header{Version: ProtocolVersion}, payload); err == nil {
		t.Fatalf("expected a payload exceeding MaxPacketSize-HeaderSize to be rejected")
	}
}

func TestPacketMarshalUnmarshalRoundTrip(t *testing.T) {
	payload := []byte("hello zhtp")
	p, err := NewPacket(Header{Version: ProtocolVersion, Operation: OpPing, SenderID: NodeID{9}}, payload)
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}

	wire := p.Marshal()
	got, err := UnmarshalPacket(wire)
	if err != nil {
		t.Fatalf("UnmarshalPacket failed: %v", err)
	}
	if string(got.Payload) != string(payload) {
		t.Fatalf("payload mismatch: got %q want %q", got.Payload, payload)
	}
	if got.Header.Operation != OpPing || got.Header.SenderID != (NodeID{9}) {
		t.Fatalf("header mismatch after round trip: %+v", got.Header)
	}
}

func TestUnmarshalPacketRejectsTruncatedBuffer(t *testing.T) {
	if _, err := UnmarshalPacket(make([]byte, HeaderSize-1)); err == nil {
		t.Fatalf("expected a buffer shorter than HeaderSize to be rejected")
	}
}

func TestUnmarshalPacketRejectsPayloadLenMismatch(t *testing.T) {
	p, err := NewPacket(Header{Version: ProtocolVersion}, []byte("abc"))
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}
	wire := p.Marshal()
	wire = append(wire, 'x') // extra byte not reflected in PayloadLen
	if _, err := UnmarshalPacket(wire); err == nil {
		t.Fatalf("expected a PayloadLen/buffer-length mismatch to be rejected")
	}
}
