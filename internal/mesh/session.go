package mesh

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
	"lukechampine.com/blake3"

	"zhtp-network/internal/xerrors"
	"zhtp-network/internal/zkcrypto"
)

// Session is the symmetric channel established once a handshake
// completes: traffic keys derived from the server's encapsulated
// nonce, independent for each direction so a compromise of one
// direction's key does not expose the other's.
type Session struct {
	sendKey [32]byte
	recvKey [32]byte
}

// deriveDirectionalKeys splits one shared seed into independent
// client-to-server and server-to-client keys via domain-separated
// BLAKE3, so the two directions never share key material even though
// they originate from the same KEM exchange.
func deriveDirectionalKeys(seed []byte) (clientToServer, serverToClient [32]byte) {
	cs := blake3.New(32, nil)
	cs.Write(seed)
	cs.Write([]byte("zhtp-mesh-c2s"))
	copy(clientToServer[:], cs.Sum(nil))

	sc := blake3.New(32, nil)
	sc.Write(seed)
	sc.Write([]byte("zhtp-mesh-s2c"))
	copy(serverToClient[:], sc.Sum(nil))
	return
}

// NewClientSession derives a Session from the client's side: it
// decrypts the server's KEM ciphertext with its own ephemeral private
// key to recover the shared seed.
func NewClientSession(ephemeralPriv *zkcrypto.PrivateKey, ct zkcrypto.Ciphertext) (*Session, error) {
	seed, err := zkcrypto.Decrypt(ephemeralPriv, ct, []byte("zhtp-mesh-session"))
	if err != nil {
		return nil, err
	}
	c2s, s2c := deriveDirectionalKeys(seed)
	return &Session{sendKey: c2s, recvKey: s2c}, nil
}

// NewServerSession derives a Session from the server's side, using the
// same shared seed it encapsulated in ServerHello.
func NewServerSession(sharedSeed []byte) *Session {
	c2s, s2c := deriveDirectionalKeys(sharedSeed)
	return &Session{sendKey: s2c, recvKey: c2s}
}

// Seal encrypts plaintext under the send key for this session's
// direction.
func (s *Session) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.sendKey[:])
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "mesh.Session.Seal", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "mesh.Session.Seal", xerrors.ErrRngFailure)
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// Open decrypts a blob produced by the peer's Seal call, which used
// its send key — this session's receive key.
func (s *Session) Open(blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.recvKey[:])
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "mesh.Session.Open", err)
	}
	if len(blob) < aead.NonceSize() {
		return nil, xerrors.New(xerrors.KindCrypto, "mesh.Session.Open", xerrors.ErrAeadFailure)
	}
	nonce, sealed := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	out, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, xerrors.New(xerrors.KindCrypto, "mesh.Session.Open", xerrors.ErrAeadFailure)
	}
	return out, nil
}
