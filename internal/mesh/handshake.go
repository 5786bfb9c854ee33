package mesh

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/gob"
	"net"
	"time"

	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
	"zhtp-network/internal/zkcrypto"
)

// ProtocolVersion is the handshake wire version this build speaks.
const ProtocolVersion uint16 = 1

// FlightTag identifies a handshake message on the wire: tag(1) ‖
// length(4, big-endian) ‖ payload.
type FlightTag byte

const (
	FlightClientHello FlightTag = 0x01
	FlightServerHello FlightTag = 0x02
	FlightClientFinish FlightTag = 0x03
)

// TimestampWindow bounds how far a flight's timestamp may drift from
// the verifier's clock before it is rejected as replay-adjacent.
const TimestampWindow = 2 * time.Minute

// ClientHello is flight 1.
type ClientHello struct {
	Version     uint16
	Nonce       [32]byte
	ClientSign  zkcrypto.PublicKey
	ClientKEM   []byte
	Timestamp   time.Time
	Signature   zkcrypto.Signature
}

func (h ClientHello) signingBytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(h.Version >> 8))
	buf.WriteByte(byte(h.Version))
	buf.Write(h.Nonce[:])
	buf.Write(h.ClientSign.SignPub)
	buf.Write(h.ClientSign.KEMPub)
	buf.Write(h.ClientKEM)
	ts, _ := h.Timestamp.UTC().MarshalBinary()
	buf.Write(ts)
	return buf.Bytes()
}

// Marshal encodes a tagged, length-prefixed ClientHello flight.
func (h ClientHello) Marshal() ([]byte, error) {
	return marshalFlight(FlightClientHello, h)
}

// ServerHello is flight 2.
type ServerHello struct {
	ServerNonce   [32]byte
	ServerSign    zkcrypto.PublicKey
	KEMCiphertext []byte
	Timestamp     time.Time
	Signature     zkcrypto.Signature
}

func (h ServerHello) signingBytes() []byte {
	var buf bytes.Buffer
	buf.Write(h.ServerNonce[:])
	buf.Write(h.ServerSign.SignPub)
	buf.Write(h.ServerSign.KEMPub)
	buf.Write(h.KEMCiphertext)
	ts, _ := h.Timestamp.UTC().MarshalBinary()
	buf.Write(ts)
	return buf.Bytes()
}

// Marshal encodes a tagged, length-prefixed ServerHello flight.
func (h ServerHello) Marshal() ([]byte, error) {
	return marshalFlight(FlightServerHello, h)
}

// ClientFinish is flight 3: a signature over the transcript of the
// first two flights, proving possession of the client's long-term key
// and binding both prior flights together.
type ClientFinish struct {
	TranscriptHash [32]byte
	Signature      zkcrypto.Signature
}

// Marshal encodes a tagged, length-prefixed ClientFinish flight.
func (f ClientFinish) Marshal() ([]byte, error) {
	return marshalFlight(FlightClientFinish, f)
}

func marshalFlight(tag FlightTag, v any) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return nil, xerrors.New(xerrors.KindInput, "mesh.marshalFlight", err)
	}
	out := make([]byte, 0, 5+payload.Len())
	out = append(out, byte(tag))
	n := uint32(payload.Len())
	out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	out = append(out, payload.Bytes()...)
	return out, nil
}

func unmarshalFlight(buf []byte, wantTag FlightTag, v any) error {
	if len(buf) < 5 {
		return xerrors.New(xerrors.KindInput, "mesh.unmarshalFlight", xerrors.ErrMalformedPacket)
	}
	if FlightTag(buf[0]) != wantTag {
		return xerrors.New(xerrors.KindInput, "mesh.unmarshalFlight", xerrors.ErrMalformedPacket)
	}
	n := uint32(buf[1])<<24 | uint32(buf[2])<<16 | uint32(buf[3])<<8 | uint32(buf[4])
	if int(n) != len(buf)-5 {
		return xerrors.New(xerrors.KindInput, "mesh.unmarshalFlight", xerrors.ErrMalformedPacket)
	}
	if err := gob.NewDecoder(bytes.NewReader(buf[5:])).Decode(v); err != nil {
		return xerrors.New(xerrors.KindInput, "mesh.unmarshalFlight", err)
	}
	return nil
}

// transcriptHash folds the first two flights into one binding digest
// for ClientFinish's signature.
func transcriptHash(hello ClientHello, server ServerHello) [32]byte {
	h := blake3.New(32, nil)
	h.Write(hello.signingBytes())
	h.Write(server.signingBytes())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Handshaker runs the three-flight handshake from either role,
// wiring replay protection, rate limiting, and observer notification
// around the core crypto steps.
type Handshaker struct {
	identitySign *zkcrypto.PrivateKey
	identityPub  zkcrypto.PublicKey
	nonces       *NonceCache
	limiter      *RateLimiter
	observer     HandshakeObserver
}

// NewHandshaker builds a Handshaker bound to one node identity.
func NewHandshaker(priv *zkcrypto.PrivateKey, pub zkcrypto.PublicKey, nonces *NonceCache, limiter *RateLimiter, observers ...HandshakeObserver) *Handshaker {
	return &Handshaker{
		identitySign: priv,
		identityPub:  pub,
		nonces:       nonces,
		limiter:      limiter,
		observer:     &multiObserver{observers: observers},
	}
}

func (h *Handshaker) notify(kind EventKind, peer [32]byte, detail string) {
	h.observer.Notify(Event{Kind: kind, PeerID: peer, Timestamp: time.Now(), Detail: detail})
}

// BeginClient produces a signed ClientHello advertising ephemeralKEM's
// KEM public key. The caller keeps the matching private key, which it
// needs to decapsulate the server's response.
func (h *Handshaker) BeginClient(ephemeralKEM zkcrypto.PublicKey) (ClientHello, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return ClientHello{}, xerrors.New(xerrors.KindCrypto, "mesh.Handshaker.BeginClient", xerrors.ErrRngFailure)
	}
	hello := ClientHello{
		Version:    ProtocolVersion,
		Nonce:      nonce,
		ClientSign: h.identityPub,
		ClientKEM:  ephemeralKEM.KEMPub,
		Timestamp:  time.Now(),
	}
	sig, err := zkcrypto.Sign(h.identitySign, hello.signingBytes())
	if err != nil {
		return ClientHello{}, err
	}
	hello.Signature = sig
	return hello, nil
}

// ReceiveClientHello verifies flight 1 from the server's side: rate
// limit, protocol version, timestamp window, replay cache, and
// signature, in that order, failing closed at the first violation.
func (h *Handshaker) ReceiveClientHello(ctx context.Context, remote net.Addr, hello ClientHello) error {
	h.notify(EventClientHelloReceived, hello.ClientSign.Fingerprint, "")

	if h.limiter != nil && !h.limiter.Allow(remote) {
		return xerrors.New(xerrors.KindAuthorization, "mesh.Handshaker.ReceiveClientHello", xerrors.ErrTimeout)
	}
	if hello.Version != ProtocolVersion {
		h.notify(EventInvalidProtocolVersionDetected, hello.ClientSign.Fingerprint, "")
		return xerrors.New(xerrors.KindInput, "mesh.Handshaker.ReceiveClientHello", xerrors.ErrInvalidProtocolVersion)
	}
	if drift := time.Since(hello.Timestamp); drift > TimestampWindow || drift < -TimestampWindow {
		h.notify(EventInvalidTimestampDetected, hello.ClientSign.Fingerprint, "")
		return xerrors.New(xerrors.KindInput, "mesh.Handshaker.ReceiveClientHello", xerrors.ErrInvalidTimestamp)
	}
	ok, full := h.nonces.Deposit(hello.Nonce, time.Now())
	if full {
		h.notify(EventNonceCacheFull, hello.ClientSign.Fingerprint, "")
	}
	if !ok {
		h.notify(EventReplayAttackDetected, hello.ClientSign.Fingerprint, "")
		return xerrors.New(xerrors.KindAuthorization, "mesh.Handshaker.ReceiveClientHello", xerrors.ErrReplayAttack)
	}

	h.notify(EventClientHelloVerificationStarted, hello.ClientSign.Fingerprint, "")
	if err := zkcrypto.Verify(hello.ClientSign, hello.signingBytes(), hello.Signature); err != nil {
		h.notify(EventClientHelloVerificationFailed, hello.ClientSign.Fingerprint, "")
		return err
	}
	h.notify(EventClientHelloVerificationSuccess, hello.ClientSign.Fingerprint, "")
	return nil
}

// RespondServerHello produces flight 2, encapsulating session-key
// material to the client's advertised ephemeral KEM key.
func (h *Handshaker) RespondServerHello(clientKEM []byte) (ServerHello, zkcrypto.Ciphertext, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return ServerHello{}, zkcrypto.Ciphertext{}, xerrors.New(xerrors.KindCrypto, "mesh.Handshaker.RespondServerHello", xerrors.ErrRngFailure)
	}
	ct, err := zkcrypto.Encrypt(zkcrypto.PublicKey{KEMPub: clientKEM}, nonce[:], []byte("zhtp-mesh-session"))
	if err != nil {
		return ServerHello{}, zkcrypto.Ciphertext{}, err
	}
	blob := ct.Marshal()
	server := ServerHello{
		ServerNonce:   nonce,
		ServerSign:    h.identityPub,
		KEMCiphertext: blob,
		Timestamp:     time.Now(),
	}
	sig, err := zkcrypto.Sign(h.identitySign, server.signingBytes())
	if err != nil {
		return ServerHello{}, zkcrypto.Ciphertext{}, err
	}
	server.Signature = sig
	return server, ct, nil
}

// VerifyServerHello checks flight 2 from the client's side.
func (h *Handshaker) VerifyServerHello(server ServerHello) error {
	h.notify(EventServerHelloVerificationStarted, server.ServerSign.Fingerprint, "")
	if err := zkcrypto.Verify(server.ServerSign, server.signingBytes(), server.Signature); err != nil {
		h.notify(EventServerHelloVerificationFailed, server.ServerSign.Fingerprint, "")
		return err
	}
	h.notify(EventServerHelloVerificationSuccess, server.ServerSign.Fingerprint, "")
	return nil
}

// FinishClient produces flight 3: a signature over the handshake
// transcript, completing mutual authentication.
func (h *Handshaker) FinishClient(hello ClientHello, server ServerHello) (ClientFinish, error) {
	th := transcriptHash(hello, server)
	sig, err := zkcrypto.Sign(h.identitySign, th[:])
	if err != nil {
		return ClientFinish{}, err
	}
	return ClientFinish{TranscriptHash: th, Signature: sig}, nil
}

// VerifyClientFinish checks flight 3 from the server's side and
// confirms the session is complete.
func (h *Handshaker) VerifyClientFinish(clientSign zkcrypto.PublicKey, hello ClientHello, server ServerHello, finish ClientFinish) error {
	h.notify(EventClientFinishVerificationStarted, clientSign.Fingerprint, "")
	want := transcriptHash(hello, server)
	if want != finish.TranscriptHash {
		h.notify(EventClientFinishVerificationFailed, clientSign.Fingerprint, "")
		return xerrors.New(xerrors.KindAuthorization, "mesh.Handshaker.VerifyClientFinish", xerrors.ErrNodeIdVerificationFailed)
	}
	if err := zkcrypto.Verify(clientSign, finish.TranscriptHash[:], finish.Signature); err != nil {
		h.notify(EventClientFinishVerificationFailed, clientSign.Fingerprint, "")
		return err
	}
	h.notify(EventClientFinishVerificationSuccess, clientSign.Fingerprint, "")
	h.notify(EventHandshakeComplete, clientSign.Fingerprint, "")
	return nil
}
