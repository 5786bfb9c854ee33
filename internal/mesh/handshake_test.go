package mesh

import (
	"context"
	"net"
	"testing"
	"time"

	"zhtp-network/internal/zkcrypto"
)

type testAddr string

func (a testAddr) Network() string { return "test" }
func (a testAddr) String() string  { return string(a) }

func newIdentity(t *testing.T) (zkcrypto.PublicKey, *zkcrypto.PrivateKey) {
	t.Helper()
	pub, priv, err := zkcrypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	t.Cleanup(priv.Destroy)
	return pub, priv
}

func TestHandshakeFullRoundTrip(t *testing.T) {
	clientPub, clientPriv := newIdentity(t)
	serverPub, serverPriv := newIdentity(t)
	ephPub, ephPriv := newIdentity(t)

	clientHS := NewHandshaker(clientPriv, clientPub, NewNonceCache(100, DefaultNonceTTL), nil)
	serverHS := NewHandshaker(serverPriv, serverPub, NewNonceCache(100, DefaultNonceTTL), nil)

	hello, err := clientHS.BeginClient(ephPub)
	if err != nil {
		t.Fatalf("BeginClient failed: %v", err)
	}

	addr := testAddr("203.0.113.1:4433")
	if err := serverHS.ReceiveClientHello(context.Background(), addr, hello); err != nil {
		t.Fatalf("ReceiveClientHello failed: %v", err)
	}

	server, ct, err := serverHS.RespondServerHello(hello.ClientKEM)
	if err != nil {
		t.Fatalf("RespondServerHello failed: %v", err)
	}

	if err := clientHS.VerifyServerHello(server); err != nil {
		t.Fatalf("VerifyServerHello failed: %v", err)
	}

	clientSession, err := NewClientSession(ephPriv, ct)
	if err != nil {
		t.Fatalf("NewClientSession failed: %v", err)
	}
	serverSession := NewServerSession(server.ServerNonce[:])

	finish, err := clientHS.FinishClient(hello, server)
	if err != nil {
		t.Fatalf("FinishClient failed: %v", err)
	}
	if err := serverHS.VerifyClientFinish(clientPub, hello, server, finish); err != nil {
		t.Fatalf("VerifyClientFinish failed: %v", err)
	}

	sealed, err := clientSession.Seal([]byte("hello server"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	opened, err := serverSession.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != "hello server" {
		t.Fatalf("expected the server to recover the client's plaintext, got %q", opened)
	}

	back, err := serverSession.Seal([]byte("hello client"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	gotBack, err := clientSession.Open(back)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(gotBack) != "hello client" {
		t.Fatalf("expected the client to recover the server's plaintext, got %q", gotBack)
	}
}

func TestReceiveClientHelloRejectsReplayedNonce(t *testing.T) {
	clientPub, clientPriv := newIdentity(t)
	serverPub, serverPriv := newIdentity(t)
	ephPub, _ := newIdentity(t)

	clientHS := NewHandshaker(clientPriv, clientPub, NewNonceCache(100, DefaultNonceTTL), nil)
	serverHS := NewHandshaker(serverPriv, serverPub, NewNonceCache(100, DefaultNonceTTL), nil)

	hello, err := clientHS.BeginClient(ephPub)
	if err != nil {
		t.Fatalf("BeginClient failed: %v", err)
	}
	addr := testAddr("203.0.113.1:4433")
	if err := serverHS.ReceiveClientHello(context.Background(), addr, hello); err != nil {
		t.Fatalf("first ReceiveClientHello failed: %v", err)
	}
	if err := serverHS.ReceiveClientHello(context.Background(), addr, hello); err == nil {
		t.Fatalf("expected a replayed nonce to be rejected")
	}
}

func TestReceiveClientHelloRejectsBadVersion(t *testing.T) {
	clientPub, clientPriv := newIdentity(t)
	serverPub, serverPriv := newIdentity(t)
	ephPub, _ := newIdentity(t)

	clientHS := NewHandshaker(clientPriv, clientPub, NewNonceCache(100, DefaultNonceTTL), nil)
	serverHS := NewHandshaker(serverPriv, serverPub, NewNonceCache(100, DefaultNonceTTL), nil)

	hello, err := clientHS.BeginClient(ephPub)
	if err != nil {
		t.Fatalf("BeginClient failed: %v", err)
	}
	hello.Version = ProtocolVersion + 1

	addr := testAddr("203.0.113.2:4433")
	if err := serverHS.ReceiveClientHello(context.Background(), addr, hello); err == nil {
		t.Fatalf("expected an unsupported protocol version to be rejected")
	}
}

func TestReceiveClientHelloRejectsStaleTimestamp(t *testing.T) {
	clientPub, clientPriv := newIdentity(t)
	serverPub, serverPriv := newIdentity(t)
	ephPub, _ := newIdentity(t)

	clientHS := NewHandshaker(clientPriv, clientPub, NewNonceCache(100, DefaultNonceTTL), nil)
	serverHS := NewHandshaker(serverPriv, serverPub, NewNonceCache(100, DefaultNonceTTL), nil)

	hello, err := clientHS.BeginClient(ephPub)
	if err != nil {
		t.Fatalf("BeginClient failed: %v", err)
	}
	hello.Timestamp = time.Now().Add(-time.Hour)

	addr := testAddr("203.0.113.3:4433")
	if err := serverHS.ReceiveClientHello(context.Background(), addr, hello); err == nil {
		t.Fatalf("expected a stale timestamp to be rejected")
	}
}

func TestVerifyClientFinishRejectsWrongTranscript(t *testing.T) {
	clientPub, clientPriv := newIdentity(t)
	serverPub, serverPriv := newIdentity(t)
	ephPub, _ := newIdentity(t)

	clientHS := NewHandshaker(clientPriv, clientPub, NewNonceCache(100, DefaultNonceTTL), nil)
	serverHS := NewHandshaker(serverPriv, serverPub, NewNonceCache(100, DefaultNonceTTL), nil)

	hello, err := clientHS.BeginClient(ephPub)
	if err != nil {
		t.Fatalf("BeginClient failed: %v", err)
	}
	addr := testAddr("203.0.113.4:4433")
	if err := serverHS.ReceiveClientHello(context.Background(), addr, hello); err != nil {
		t.Fatalf("ReceiveClientHello failed: %v", err)
	}
	server, _, err := serverHS.RespondServerHello(hello.ClientKEM)
	if err != nil {
		t.Fatalf("RespondServerHello failed: %v", err)
	}
	finish, err := clientHS.FinishClient(hello, server)
	if err != nil {
		t.Fatalf("FinishClient failed: %v", err)
	}
	finish.TranscriptHash[0] ^= 0xff

	if err := serverHS.VerifyClientFinish(clientPub, hello, server, finish); err == nil {
		t.Fatalf("expected a tampered transcript hash to be rejected")
	}
}

func TestFlightMarshalRoundTrip(t *testing.T) {
	clientPub, _ := newIdentity(t)
	hello := ClientHello{
		Version:    ProtocolVersion,
		Nonce:      [32]byte{1, 2, 3},
		ClientSign: clientPub,
		ClientKEM:  clientPub.KEMPub,
		Timestamp:  time.Now(),
	}
	buf, err := hello.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var got ClientHello
	if err := unmarshalFlight(buf, FlightClientHello, &got); err != nil {
		t.Fatalf("unmarshalFlight failed: %v", err)
	}
	if got.Nonce != hello.Nonce {
		t.Fatalf("round trip nonce mismatch")
	}
}

func TestUnmarshalFlightRejectsWrongTag(t *testing.T) {
	clientPub, _ := newIdentity(t)
	hello := ClientHello{Version: ProtocolVersion, ClientSign: clientPub, Timestamp: time.Now()}
	buf, err := hello.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var got ServerHello
	if err := unmarshalFlight(buf, FlightServerHello, &got); err == nil {
		t.Fatalf("expected a tag mismatch to be rejected")
	}
}

var _ net.Addr = testAddr("")
