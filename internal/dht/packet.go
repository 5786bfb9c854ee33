package dht

import (
	"encoding/binary"
	"time"

	"zhtp-network/internal/xerrors"
)

// HeaderSize is the fixed wire header length.
const HeaderSize = 128

// MaxPacketSize bounds a packet (header + payload) over UDP.
const MaxPacketSize = 8192

// Operation tags the packet's RPC kind.
type Operation uint8

const (
	OpQuery Operation = iota
	OpQueryResponse
	OpStore
	OpStoreAck
	OpPeerDiscovery
	OpPeerResponse
	OpPing
	OpPong
	OpRelayQuery
	OpRelayResponse
	OpPeerRegister
	OpPeerRegisterAck
	OpPeerQuery
	OpPeerQueryResponse
)

// ProtocolVersion is the current wire version.
const ProtocolVersion uint16 = 1

// Header is the fixed 128-byte packet header: version(2) +
// operation(1) + packet id(16) + sender id(32) + target id(32, zero =
// broadcast) + payload length(4) + timestamp(8) + reserved(32)
// ) = 127 bytes rounded up to the fixed 128-byte budget with one pad
// byte.
type Header struct {
	Version   uint16
	Operation Operation
	PacketID  [16]byte
	SenderID  NodeID
	TargetID  NodeID // zero value means broadcast
	PayloadLen uint32
	Timestamp time.Time
}

// Marshal encodes h into exactly HeaderSize bytes.
func (h Header) Marshal() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint16(buf[0:2], h.Version)
	buf[2] = byte(h.Operation)
	copy(buf[3:19], h.PacketID[:])
	copy(buf[19:51], h.SenderID[:])
	copy(buf[51:83], h.TargetID[:])
	binary.BigEndian.PutUint32(buf[83:87], h.PayloadLen)
	binary.BigEndian.PutUint64(buf[87:95], uint64(h.Timestamp.UnixNano()))
	// buf[95:127] reserved, buf[127] pad — both left zero.
	return buf
}

// UnmarshalHeader decodes a fixed HeaderSize-byte buffer into a
// Header. It rejects an unsupported protocol version rather than
// trying to interpret the rest of the buffer under an unknown layout.
func UnmarshalHeader(buf [HeaderSize]byte) (Header, error) {
	var h Header
	h.Version = binary.BigEndian.Uint16(buf[0:2])
	if h.Version != ProtocolVersion {
		return Header{}, xerrors.New(xerrors.KindTransport, "dht.UnmarshalHeader", xerrors.ErrInvalidProtocolVersion)
	}
	h.Operation = Operation(buf[2])
	copy(h.PacketID[:], buf[3:19])
	copy(h.SenderID[:], buf[19:51])
	copy(h.TargetID[:], buf[51:83])
	h.PayloadLen = binary.BigEndian.Uint32(buf[83:87])
	h.Timestamp = time.Unix(0, int64(binary.BigEndian.Uint64(buf[87:95])))
	return h, nil
}

// Packet is a header plus its payload, with the total-size invariant
// enforced at construction.
type Packet struct {
	Header  Header
	Payload []byte
}

// NewPacket builds a Packet, validating the combined size against
// MaxPacketSize and setting Header.PayloadLen.
func NewPacket(h Header, payload []byte) (Packet, error) {
	if HeaderSize+len(payload) > MaxPacketSize {
		return Packet{}, xerrors.New(xerrors.KindTransport, "dht.NewPacket", xerrors.ErrMalformedPacket)
	}
	h.PayloadLen = uint32(len(payload))
	return Packet{Header: h, Payload: payload}, nil
}

// Marshal encodes the full wire packet.
func (p Packet) Marshal() []byte {
	header := p.Header.Marshal()
	out := make([]byte, 0, HeaderSize+len(p.Payload))
	out = append(out, header[:]...)
	out = append(out, p.Payload...)
	return out
}

// UnmarshalPacket decodes a wire packet, rejecting anything under
// HeaderSize bytes, over MaxPacketSize, or whose declared
// PayloadLen does not match the remaining bytes.
func UnmarshalPacket(buf []byte) (Packet, error) {
	if len(buf) < HeaderSize || len(buf) > MaxPacketSize {
		return Packet{}, xerrors.New(xerrors.KindTransport, "dht.UnmarshalPacket", xerrors.ErrMalformedPacket)
	}
	var headerBuf [HeaderSize]byte
	copy(headerBuf[:], buf[:HeaderSize])
	h, err := UnmarshalHeader(headerBuf)
	if err != nil {
		return Packet{}, err
	}
	payload := buf[HeaderSize:]
	if int(h.PayloadLen) != len(payload) {
		return Packet{}, xerrors.New(xerrors.KindTransport, "dht.UnmarshalPacket", xerrors.ErrMalformedPacket)
	}
	return Packet{Header: h, Payload: payload}, nil
}
