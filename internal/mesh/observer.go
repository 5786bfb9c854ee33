package mesh

import "time"

// EventKind tags a handshake lifecycle or security event delivered to
// a HandshakeObserver.
type EventKind uint8

const (
	EventClientHelloReceived EventKind = iota
	EventClientHelloVerificationStarted
	EventClientHelloVerificationSuccess
	EventClientHelloVerificationFailed
	EventServerHelloVerificationStarted
	EventServerHelloVerificationSuccess
	EventServerHelloVerificationFailed
	EventClientFinishVerificationStarted
	EventClientFinishVerificationSuccess
	EventClientFinishVerificationFailed
	EventHandshakeComplete

	EventReplayAttackDetected
	EventInvalidTimestampDetected
	EventInvalidProtocolVersionDetected
	EventNodeIdVerificationFailed
	EventNonceCacheFull
)

// Event is one observed handshake occurrence.
type Event struct {
	Kind      EventKind
	PeerID    [32]byte
	Timestamp time.Time
	Detail    string
}

// HandshakeObserver receives handshake lifecycle and security events.
// Implementations must not block: Notify runs on the handshake's own
// goroutine.
type HandshakeObserver interface {
	Notify(Event)
}

// MetricsSnapshot is the shape of a point-in-time handshake metrics
// view. Handshaker itself does not build one.
type MetricsSnapshot struct {
	Duration        time.Duration
	CacheSize       int
	CacheUtilization float64
	ProtocolVersion uint16
}

// ObserverFunc adapts a plain function to HandshakeObserver.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// multiObserver fans events out to every registered observer.
type multiObserver struct {
	observers []HandshakeObserver
}

func (m *multiObserver) Notify(e Event) {
	for _, o := range m.observers {
		o.Notify(e)
	}
}
