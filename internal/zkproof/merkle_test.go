package zkproof

import "testing"

func leavesOf(vals ...byte) [][32]byte {
	out := make([][32]byte, len(vals))
	for i, v := range vals {
		out[i][0] = v
	}
	return out
}

func TestBuildTreeAndVerifyInclusionForEveryLeaf(t *testing.T) {
	leaves := leavesOf(1, 2, 3, 4, 5)
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	root := tree.Root()

	for i := range leaves {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			t.Fatalf("GenerateProof(%d) failed: %v", i, err)
		}
		if err := VerifyInclusion(proof, root); err != nil {
			t.Fatalf("VerifyInclusion(%d) failed: %v", i, err)
		}
	}
}

func TestVerifyInclusionRejectsWrongRoot(t *testing.T) {
	tree, err := BuildTree(leavesOf(1, 2, 3))
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	proof, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatalf("GenerateProof failed: %v", err)
	}

	var wrongRoot [32]byte
	wrongRoot[0] = 0xff
	if err := VerifyInclusion(proof, wrongRoot); err == nil {
		t.Fatalf("expected verification against an unrelated root to fail")
	}
}

func TestVerifyInclusionRejectsTamperedLeaf(t *testing.T) {
	tree, err := BuildTree(leavesOf(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	root := tree.Root()
	proof, err := tree.GenerateProof(2)
	if err != nil {
		t.Fatalf("GenerateProof failed: %v", err)
	}
	proof.Leaf[1] = 0x42
	if err := VerifyInclusion(proof, root); err == nil {
		t.Fatalf("expected verification of a tampered leaf to fail")
	}
}

func TestBuildTreeRejectsEmptyLeafSet(t *testing.T) {
	if _, err := BuildTree(nil); err == nil {
		t.Fatalf("expected an empty leaf set to be rejected")
	}
}

func TestGenerateProofRejectsOutOfRangeIndex(t *testing.T) {
	tree, err := BuildTree(leavesOf(1, 2))
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if _, err := tree.GenerateProof(-1); err == nil {
		t.Fatalf("expected a negative index to be rejected")
	}
	if _, err := tree.GenerateProof(2); err == nil {
		t.Fatalf("expected an out-of-range index to be rejected")
	}
}

func TestBuildTreeOddLeafCountDuplicatesFinalNode(t *testing.T) {
	odd, err := BuildTree(leavesOf(1, 2, 3))
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	padded, err := BuildTree(leavesOf(1, 2, 3, 3))
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	if odd.Root() != padded.Root() {
		t.Fatalf("expected duplicating the final leaf to match the odd-count root")
	}
}
