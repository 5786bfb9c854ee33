// Package zkproof is the ProofEngine: zero-knowledge proofs over
// identity, numeric ranges, transaction validity, storage access, and
// aggregated chain state, built on gnark/Groth16. Each Proof is a
// standalone Groth16 proof; no circuit here verifies another proof, so
// the proofs are not recursive.
//
// A Proof is always a concrete object; there is no optional or
// fallback proof representation. A zero Proof{} (no proof or public
// witness inside) stands for a missing proof, and Verify rejects it
// with ErrInvalidProofFormat.
package zkproof

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"zhtp-network/internal/xerrors"
)

// Circuit identifies which constraint system a Proof was built
// against. The verifier requires this to match before attempting
// verification, rather than trying every known circuit in turn.
type Circuit uint8

const (
	CircuitIdentity Circuit = iota
	CircuitRange
	CircuitTransaction
	CircuitStorageAccess
	CircuitAggregatedState
)

func (c Circuit) String() string {
	switch c {
	case CircuitIdentity:
		return "identity"
	case CircuitRange:
		return "range"
	case CircuitTransaction:
		return "transaction"
	case CircuitStorageAccess:
		return "storage_access"
	case CircuitAggregatedState:
		return "aggregated_state"
	default:
		return "unknown"
	}
}

func (c Circuit) blank() frontend.Circuit {
	switch c {
	case CircuitIdentity:
		return &IdentityCircuit{}
	case CircuitRange:
		return &RangeCircuit{}
	case CircuitTransaction:
		return &TransactionCircuit{}
	case CircuitStorageAccess:
		return &StorageAccessCircuit{}
	case CircuitAggregatedState:
		return &AggregatedStateCircuit{}
	default:
		return nil
	}
}

// keyset holds the one-time Groth16 setup artifacts for a circuit.
type keyset struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

var (
	keysetMu sync.Mutex
	keysets  = map[Circuit]*keyset{}
)

// setupFor returns the cached Groth16 setup for circ, compiling and
// running trusted setup on first use. Circuits are fixed at compile
// time, so one setup per circuit for the process lifetime is correct;
// this is not a substitute for a production multi-party setup
// ceremony, which is out of scope here.
func setupFor(circ Circuit) (*keyset, error) {
	keysetMu.Lock()
	defer keysetMu.Unlock()
	if ks, ok := keysets[circ]; ok {
		return ks, nil
	}
	blank := circ.blank()
	if blank == nil {
		return nil, xerrors.New(xerrors.KindProof, "zkproof.setupFor", xerrors.ErrInvalidProofFormat)
	}
	ccs, err := frontend.Compile(circuitCurve.ScalarField(), r1cs.NewBuilder, blank)
	if err != nil {
		return nil, xerrors.New(xerrors.KindProof, "zkproof.setupFor", fmt.Errorf("compile: %w", err))
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, xerrors.New(xerrors.KindProof, "zkproof.setupFor", fmt.Errorf("setup: %w", err))
	}
	ks := &keyset{ccs: ccs, pk: pk, vk: vk}
	keysets[circ] = ks
	return ks, nil
}

// Proof is a Groth16 proof over a named circuit, bundled
// with the public witness a verifier checks it against.
type Proof struct {
	Circuit Circuit
	proof   groth16.Proof
	public  witness.Witness
}

// Generate builds a Proof for circ from a full assignment (public and
// private fields populated). assignment must be the same concrete
// circuit struct type that circ.blank() returns.
func Generate(circ Circuit, assignment frontend.Circuit) (Proof, error) {
	ks, err := setupFor(circ)
	if err != nil {
		return Proof{}, err
	}
	full, err := frontend.NewWitness(assignment, circuitCurve.ScalarField())
	if err != nil {
		return Proof{}, xerrors.New(xerrors.KindProof, "zkproof.Generate", fmt.Errorf("%w: %v", xerrors.ErrConstraintViolation, err))
	}
	p, err := groth16.Prove(ks.ccs, ks.pk, full)
	if err != nil {
		return Proof{}, xerrors.New(xerrors.KindProof, "zkproof.Generate", fmt.Errorf("%w: %v", xerrors.ErrConstraintViolation, err))
	}
	pub, err := full.Public()
	if err != nil {
		return Proof{}, xerrors.New(xerrors.KindProof, "zkproof.Generate", fmt.Errorf("%w: %v", xerrors.ErrPublicInputMismatch, err))
	}
	return Proof{Circuit: circ, proof: p, public: pub}, nil
}

// Verify checks p against the cached verifying key for its circuit.
// Any structural problem — an uninitialized Proof, corrupt proof
// bytes, a public-input mismatch — surfaces as an *xerrors.Error with
// KindProof rather than a boolean, so callers cannot silently collapse
// "could not verify" into "verified false".
func Verify(p Proof) error {
	if p.proof == nil || p.public == nil {
		return xerrors.New(xerrors.KindProof, "zkproof.Verify", xerrors.ErrInvalidProofFormat)
	}
	ks, err := setupFor(p.Circuit)
	if err != nil {
		return err
	}
	if err := groth16.Verify(p.proof, ks.vk, p.public); err != nil {
		return xerrors.New(xerrors.KindProof, "zkproof.Verify", fmt.Errorf("%w: %v", xerrors.ErrConstraintViolation, err))
	}
	return nil
}
