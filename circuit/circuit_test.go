package circuit

import (
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/fumin/tensor"

	"github.com/fumin/qprep/amp"
	"github.com/fumin/qprep/mps"
)

func TestApplyGate(t *testing.T) {
	t.Parallel()
	x := tensor.Zeros(2, 2)
	x.SetAt([]int{0, 1}, 1)
	x.SetAt([]int{1, 0}, 1)

	tests := []struct {
		name  string
		gates []GateOp
		want  []complex64
	}{
		// Qubit 1 is the least significant bit of a 2-qubit register.
		{
			name:  "x on qubit 1",
			gates: []GateOp{{U: x, Qubits: []int{1}}},
			want:  []complex64{0, 1, 0, 0},
		},
		{
			name:  "x on qubit 0",
			gates: []GateOp{{U: x, Qubits: []int{0}}},
			want:  []complex64{0, 0, 1, 0},
		},
		{
			name: "x on both",
			gates: []GateOp{
				{U: x, Qubits: []int{0}},
				{U: x, Qubits: []int{1}},
			},
			want: []complex64{0, 0, 0, 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			c := &Circuit{AncillaLen: 1, PhysicalLen: 1, Gates: test.gates}
			got := Simulate(c)
			if diff := amp.MaxDiff(got, test.want); diff > 1e-6 {
				t.Fatalf("%v, expected %v", got, test.want)
			}
		})
	}
}

func TestAssembleGHZ(t *testing.T) {
	t.Parallel()
	const n = 5
	dsc := mps.GHZ(n)
	c, err := Assemble(dsc)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if c.AncillaLen != 1 || c.PhysicalLen != n {
		t.Fatalf("%d %d, expected %d %d", c.AncillaLen, c.PhysicalLen, 1, n)
	}

	state := Simulate(c)

	// Measurements concentrate on 00000 and 11111, half and half.
	probs := PhysicalProbabilities(state, c.AncillaLen, c.PhysicalLen)
	for p, prob := range probs {
		var want float64
		if p == 0 || p == len(probs)-1 {
			want = 0.5
		}
		if diff := prob - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("bitstring %05b: %f, expected %f", p, prob, want)
		}
	}

	// Projecting onto the final boundary reproduces the contraction.
	got := amp.Normalize(Project(state, dsc.Final, c.AncillaLen, c.PhysicalLen))
	want := amp.Normalize(dsc.Contract(mps.SiteMajor))
	if diff := amp.MaxDiff(got, want); diff > 1e-4 {
		t.Fatalf("diff %g", diff)
	}
}

func TestAssembleRandom(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(7, 11))
	tests := []struct {
		n   int
		chi int
	}{
		{n: 4, chi: 4},
		{n: 3, chi: 2},
		{n: 5, chi: 1},
		{n: 2, chi: 8},
	}
	for _, test := range tests {
		dsc := mps.Rand(rng, test.n, 2, test.chi)
		t.Run(fmt.Sprintf("n=%d chi=%d", test.n, test.chi), func(t *testing.T) {
			t.Parallel()
			c, err := Assemble(dsc)
			if err != nil {
				t.Fatalf("%+v", err)
			}

			state := Simulate(c)
			got := amp.Normalize(Project(state, dsc.Final, c.AncillaLen, c.PhysicalLen))
			want := amp.Normalize(dsc.Contract(mps.SiteMajor))
			if diff := amp.MaxDiff(got, want); diff > 1e-4 {
				t.Fatalf("diff %g", diff)
			}
		})
	}
}

func TestAssembleBondResolved(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(19, 23))
	dsc := mps.Rand(rng, 3, 2, 4)

	c, err := Assemble(dsc)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// The simulated state is the full bond-resolved amplitude tensor, with
	// the ancilla block most significant; the reference keeps the bond least
	// significant.
	state := Simulate(c)
	got := amp.Normalize(amp.Transpose(state, 1<<c.AncillaLen, 1<<c.PhysicalLen))
	want := amp.Normalize(dsc.ContractBond())
	if diff := amp.MaxDiff(got, want); diff > 1e-4 {
		t.Fatalf("diff %g", diff)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(29, 31))
	dsc := mps.Rand(rng, 4, 2, 4)

	c1, err := Assemble(dsc)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	c2, err := Assemble(dsc)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !c1.Equal(c2) {
		t.Fatalf("circuits differ")
	}
}

func TestAssembleErrors(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(37, 41))

	// Gates act on qubits only.
	if _, err := Assemble(mps.Rand(rng, 3, 3, 4)); err == nil {
		t.Fatalf("expected error")
	}

	// Bond dimension must be padded to a power of two first.
	_, err := Assemble(mps.Rand(rng, 3, 2, 3))
	if !stderrors.Is(err, mps.ErrInvalidBondDimension) {
		t.Fatalf("%v, expected %v", err, mps.ErrInvalidBondDimension)
	}
}
