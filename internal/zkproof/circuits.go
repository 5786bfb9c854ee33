package zkproof

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
)

// IdentityCircuit proves age >= minAge, jurisdiction == required, and
// that the credential hash equals the public recognized-credential
// commitment, without revealing age, jurisdiction, or the credential
// itself.
type IdentityCircuit struct {
	MinAge              frontend.Variable `gnark:",public"`
	RequiredJurisdiction frontend.Variable `gnark:",public"`
	RecognizedCredential frontend.Variable `gnark:",public"`

	Age           frontend.Variable
	Jurisdiction  frontend.Variable
	CredentialHash frontend.Variable
}

func (c *IdentityCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(c.MinAge, c.Age)
	api.AssertIsEqual(c.Jurisdiction, c.RequiredJurisdiction)
	api.AssertIsEqual(c.CredentialHash, c.RecognizedCredential)
	return nil
}

// RangeCircuit proves min <= value <= max for a blinded value, without
// revealing value or the blinding factor.
type RangeCircuit struct {
	Min frontend.Variable `gnark:",public"`
	Max frontend.Variable `gnark:",public"`

	Value    frontend.Variable
	Blinding frontend.Variable
}

func (c *RangeCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(c.Min, c.Value)
	api.AssertIsLessOrEqual(c.Value, c.Max)
	api.AssertIsDifferent(c.Blinding, 0)
	return nil
}

// TransactionCircuit proves amount <= balance and that the nullifier
// is correctly derived from a sender secret and a per-transaction
// nullifier seed, without revealing the sender's balance or secret.
type TransactionCircuit struct {
	Fee              frontend.Variable `gnark:",public"`
	AmountCommitment frontend.Variable `gnark:",public"`
	Nullifier        frontend.Variable `gnark:",public"`

	SenderBalance frontend.Variable
	Amount        frontend.Variable
	NullifierSeed frontend.Variable
	SenderSecret  frontend.Variable
}

func (c *TransactionCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(c.Amount, c.SenderBalance)

	computedCommitment := mimcHash(api, c.Amount)
	api.AssertIsEqual(c.AmountCommitment, computedCommitment)

	computedNullifier := mimcHash(api, c.SenderSecret, c.NullifierSeed)
	api.AssertIsEqual(c.Nullifier, computedNullifier)
	return nil
}

// StorageAccessCircuit proves permissionLevel >= required and that the
// access key is correctly derived from the requester's secret, without
// revealing the secret or the raw key.
type StorageAccessCircuit struct {
	RequiredPermission frontend.Variable `gnark:",public"`
	DataHash           frontend.Variable `gnark:",public"`

	AccessKey       frontend.Variable
	RequesterSecret frontend.Variable
	PermissionLevel frontend.Variable
}

func (c *StorageAccessCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(c.RequiredPermission, c.PermissionLevel)

	derivedKey := mimcHash(api, c.RequesterSecret, c.DataHash)
	api.AssertIsEqual(c.AccessKey, derivedKey)
	return nil
}

// AggregatedStateCircuit proves that 32 per-transaction commitments,
// folded in order onto PriorRoot, yield NewRoot, letting
// BlockchainState carry one proof per block instead of one per
// transaction. It does not verify the per-transaction proofs
// themselves, and all 32 slots are folded whatever BatchCount says;
// BatchCount is only checked to be at most 32.
type AggregatedStateCircuit struct {
	PriorRoot  frontend.Variable `gnark:",public"`
	NewRoot    frontend.Variable `gnark:",public"`
	BatchCount frontend.Variable `gnark:",public"`

	TransactionCommitments [32]frontend.Variable
}

func (c *AggregatedStateCircuit) Define(api frontend.API) error {
	acc := c.PriorRoot
	for i := range c.TransactionCommitments {
		acc = mimcHash(api, acc, c.TransactionCommitments[i])
	}
	api.AssertIsEqual(acc, c.NewRoot)
	api.AssertIsLessOrEqual(c.BatchCount, len(c.TransactionCommitments))
	return nil
}

// mimcHash folds inputs through repeated multiplication-cube gates, a
// circuit-native substitute for a general hash when only equality
// commitments (not collision resistance against an adaptive adversary)
// are needed inside the constraint system. The hash used off-circuit
// for these commitments is BLAKE3; this folds the resulting field
// elements, it does not reimplement BLAKE3 in-circuit.
func mimcHash(api frontend.API, inputs ...frontend.Variable) frontend.Variable {
	acc := frontend.Variable(0)
	for _, in := range inputs {
		acc = api.Add(acc, in)
		sq := api.Mul(acc, acc)
		acc = api.Mul(sq, acc)
	}
	return acc
}

// circuitCurve is the pairing-friendly curve every circuit in this
// package compiles against.
var circuitCurve = ecc.BN254
