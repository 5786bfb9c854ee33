package mesh

import "testing"

func TestObserverFuncAdaptsPlainFunction(t *testing.T) {
	var got Event
	var o HandshakeObserver = ObserverFunc(func(e Event) { got = e })
	o.Notify(Event{Kind: EventHandshakeComplete, PeerID: [32]byte{1}})
	if got.Kind != EventHandshakeComplete || got.PeerID != ([32]byte{1}) {
		t.Fatalf("expected the wrapped function to receive the event, got %+v", got)
	}
}

func TestMultiObserverFansOutToEveryObserver(t *testing.T) {
	var a, b []Event
	m := &multiObserver{observers: []HandshakeObserver{
		ObserverFunc(func(e Event) { a = append(a, e) }),
		ObserverFunc(func(e Event) { b = append(b, e) }),
	}}

	m.Notify(Event{Kind: EventReplayAttackDetected})
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected both observers to receive the event, got len(a)=%d len(b)=%d", len(a), len(b))
	}
}

func TestMultiObserverWithNoObserversDoesNotPanic(t *testing.T) {
	m := &multiObserver{}
	m.Notify(Event{Kind: EventHandshakeComplete})
}
