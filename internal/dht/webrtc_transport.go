package dht

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"zhtp-network/internal/xerrors"
)

const webrtcDataChannelLabel = "zhtp-dht"

// webrtcPeerConn pairs a peer connection with the data channel DHT
// packets flow over, keyed by the remote NodeID.
type webrtcPeerConn struct {
	conn    *webrtc.PeerConnection
	channel *webrtc.DataChannel
}

// WebRTCTransport carries DhtRoutingCore packets over direct
// peer-to-peer WebRTC data channels, the transport used when two
// nodes on the same WiFi Direct or LAN segment bypass the wider
// internet path entirely.
type WebRTCTransport struct {
	local NodeID

	mu    sync.Mutex
	peers map[NodeID]*webrtcPeerConn

	inbox chan inboundFrame
}

type inboundFrame struct {
	data []byte
	from NodeID
}

// NewWebRTCTransport creates an empty transport; peer connections are
// established via Offer/Accept as signaling messages arrive through
// whatever side channel (mesh session, QR code, local discovery) the
// caller uses to exchange SDP.
func NewWebRTCTransport(local NodeID) *WebRTCTransport {
	return &WebRTCTransport{
		local: local,
		peers: make(map[NodeID]*webrtcPeerConn),
		inbox: make(chan inboundFrame, 256),
	}
}

// Offer creates a peer connection and data channel for remote,
// returning the local SDP offer to hand to the signaling channel.
func (t *WebRTCTransport) Offer(remote NodeID) (string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Offer", err)
	}
	dc, err := pc.CreateDataChannel(webrtcDataChannelLabel, nil)
	if err != nil {
		pc.Close()
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Offer", err)
	}
	t.wireChannel(remote, dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Offer", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Offer", err)
	}

	t.mu.Lock()
	t.peers[remote] = &webrtcPeerConn{conn: pc, channel: dc}
	t.mu.Unlock()
	return offer.SDP, nil
}

// Accept answers remote's offer SDP, returning the local answer SDP.
func (t *WebRTCTransport) Accept(remote NodeID, offerSDP string) (string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Accept", err)
	}
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		t.wireChannel(remote, dc)
		t.mu.Lock()
		if p, ok := t.peers[remote]; ok {
			p.channel = dc
		}
		t.mu.Unlock()
	})

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Accept", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Accept", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return "", xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Accept", err)
	}

	t.mu.Lock()
	t.peers[remote] = &webrtcPeerConn{conn: pc}
	t.mu.Unlock()
	return answer.SDP, nil
}

func (t *WebRTCTransport) wireChannel(remote NodeID, dc *webrtc.DataChannel) {
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.inbox <- inboundFrame{data: msg.Data, from: remote}
	})
}

// Send writes payload to peer's data channel.
func (t *WebRTCTransport) Send(ctx context.Context, payload []byte, peer Peer) error {
	t.mu.Lock()
	p, ok := t.peers[peer.ID]
	t.mu.Unlock()
	if !ok || p.channel == nil {
		return xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Send", xerrors.ErrTransportUnreachable)
	}
	if err := p.channel.Send(payload); err != nil {
		return xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Send", err)
	}
	return nil
}

// Receive blocks for the next frame delivered on any data channel.
func (t *WebRTCTransport) Receive(ctx context.Context) ([]byte, Peer, error) {
	select {
	case <-ctx.Done():
		return nil, Peer{}, xerrors.New(xerrors.KindTransport, "dht.WebRTCTransport.Receive", ctx.Err())
	case frame := <-t.inbox:
		return frame.data, Peer{ID: frame.from}, nil
	}
}

func (t *WebRTCTransport) LocalID() NodeID { return t.local }

// CanReach reports whether a data channel is already established for
// peer; WebRTC transport needs out-of-band signaling before a peer
// becomes reachable, unlike an always-dialable transport.
func (t *WebRTCTransport) CanReach(peer Peer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[peer.ID]
	return ok && p.channel != nil && p.channel.ReadyState() == webrtc.DataChannelStateOpen
}

func (t *WebRTCTransport) MTU() int { return 16 * 1024 }

func (t *WebRTCTransport) TypicalLatencyMs() float64 { return 20 }

// Close tears down every peer connection.
func (t *WebRTCTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, p := range t.peers {
		p.conn.Close()
		delete(t.peers, id)
	}
	return nil
}

var _ Transport = (*WebRTCTransport)(nil)
