package zkcrypto

import (
	"zhtp-network/internal/xerrors"
)

// MultiSig collects partial Dilithium3 signatures from a fixed set of
// participants toward a threshold. Unlike a BLS aggregate signature,
// partial signatures here are not combined into one value; the bundle
// is itself the credential, valid once threshold-many entries verify.
type MultiSig struct {
	Threshold    int
	Participants []PublicKey
	partial      map[int]Signature
}

// NewMultiSig builds an empty bundle over a fixed participant list.
func NewMultiSig(threshold int, participants []PublicKey) (*MultiSig, error) {
	if threshold <= 0 || threshold > len(participants) {
		return nil, xerrors.New(xerrors.KindCrypto, "zkcrypto.NewMultiSig", xerrors.ErrThresholdViolation)
	}
	return &MultiSig{
		Threshold:    threshold,
		Participants: participants,
		partial:      make(map[int]Signature),
	}, nil
}

// AddSignature records participant index idx's signature over msg
// after verifying it against that participant's public key. A bad
// signature is rejected outright rather than stored for later
// discovery.
func (m *MultiSig) AddSignature(idx int, msg []byte, sig Signature) error {
	if idx < 0 || idx >= len(m.Participants) {
		return xerrors.New(xerrors.KindCrypto, "zkcrypto.MultiSig.AddSignature", xerrors.ErrInvalidLength)
	}
	if err := Verify(m.Participants[idx], msg, sig); err != nil {
		return err
	}
	m.partial[idx] = sig
	return nil
}

// IsComplete reports whether threshold-many distinct participants have
// contributed a verified signature.
func (m *MultiSig) IsComplete() bool {
	return len(m.partial) >= m.Threshold
}

// Verify re-checks every recorded partial signature against msg and
// confirms the threshold is still met. Call this at the point of
// consumption rather than trusting IsComplete alone, since msg at
// verification time may differ from what AddSignature originally saw.
func (m *MultiSig) Verify(msg []byte) error {
	valid := 0
	for idx, sig := range m.partial {
		if Verify(m.Participants[idx], msg, sig) == nil {
			valid++
		}
	}
	if valid < m.Threshold {
		return xerrors.New(xerrors.KindCrypto, "zkcrypto.MultiSig.Verify", xerrors.ErrThresholdViolation)
	}
	return nil
}
