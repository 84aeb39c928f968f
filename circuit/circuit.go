// Package circuit synthesizes quantum circuits that prepare matrix product
// states.
//
// The synthesized circuit acts on an ancilla register of log2(chi) qubits
// carrying the running bond state, and one physical qubit per site. Qubit 0
// is the most significant bit of a state index everywhere in this package;
// back ends using the opposite convention should convert their statevectors
// with package amp.
package circuit

import (
	"slices"

	"github.com/fumin/tensor"
)

// A GateOp applies a unitary matrix to an ordered list of qubits.
// Qubits[0] carries the most significant bit of the matrix index.
type GateOp struct {
	U      *tensor.Dense
	Qubits []int
}

// A Circuit is an ordered gate sequence over two registers.
// The ancilla register occupies qubits [0, AncillaLen), and the physical
// register qubits [AncillaLen, AncillaLen+PhysicalLen).
type Circuit struct {
	AncillaLen  int
	PhysicalLen int
	Gates       []GateOp
}

// Qubits returns the total number of qubits.
func (c *Circuit) Qubits() int { return c.AncillaLen + c.PhysicalLen }

// Equal reports whether two circuits are identical, gate for gate and entry
// for entry.
func (c *Circuit) Equal(o *Circuit) bool {
	if c.AncillaLen != o.AncillaLen || c.PhysicalLen != o.PhysicalLen {
		return false
	}
	if len(c.Gates) != len(o.Gates) {
		return false
	}
	for gi, g := range c.Gates {
		og := o.Gates[gi]
		if !slices.Equal(g.Qubits, og.Qubits) {
			return false
		}
		if !slices.Equal(g.U.Shape(), og.U.Shape()) {
			return false
		}
		for ijk, v := range g.U.All() {
			if og.U.At(ijk...) != v {
				return false
			}
		}
	}
	return true
}
