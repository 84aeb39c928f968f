package circuit

import (
	"fmt"
)

// Simulate applies the circuit's gates in order to the all-zeros state and
// returns the final statevector of length 2^Qubits().
// Qubit 0 is the most significant bit of the state index.
func Simulate(c *Circuit) []complex64 {
	state := make([]complex64, 1<<c.Qubits())
	state[0] = 1
	for _, g := range c.Gates {
		applyGate(state, c.Qubits(), g)
	}
	return state
}

// Project contracts the ancilla block of a simulated statevector with the
// normalized final boundary vector, using a plain dot product as in the
// contraction definition. The result has one amplitude per physical
// bitstring, first site most significant.
func Project(state, final []complex64, ancillaLen, physicalLen int) []complex64 {
	chi, pn := 1<<ancillaLen, 1<<physicalLen
	if len(state) != chi*pn || len(final) != chi {
		panic(fmt.Sprintf("%d %d %d %d", len(state), len(final), ancillaLen, physicalLen))
	}
	n := norm(final)
	if n == 0 {
		panic("zero boundary vector")
	}

	out := make([]complex64, pn)
	for p := range pn {
		var s complex128
		for a := range chi {
			s += complex128(state[a*pn+p]) * complex128(final[a])
		}
		out[p] = complex64(s / complex(n, 0))
	}
	return out
}

// PhysicalProbabilities marginalizes the ancilla register, returning the
// measurement distribution of the physical register.
func PhysicalProbabilities(state []complex64, ancillaLen, physicalLen int) []float64 {
	chi, pn := 1<<ancillaLen, 1<<physicalLen
	if len(state) != chi*pn {
		panic(fmt.Sprintf("%d %d %d", len(state), ancillaLen, physicalLen))
	}

	probs := make([]float64, pn)
	for p := range pn {
		for a := range chi {
			x := state[a*pn+p]
			probs[p] += float64(real(x))*float64(real(x)) + float64(imag(x))*float64(imag(x))
		}
	}
	return probs
}

func applyGate(state []complex64, total int, g GateOp) {
	m := len(g.Qubits)
	dim := 1 << m
	us := g.U.Shape()
	if len(us) != 2 || us[0] != dim || us[1] != dim {
		panic(fmt.Sprintf("%#v %#v", us, g.Qubits))
	}

	pos := make([]int, m)
	mask := 0
	for k, q := range g.Qubits {
		if q < 0 || q >= total {
			panic(fmt.Sprintf("%d %d", q, total))
		}
		pos[k] = 1 << (total - 1 - q)
		mask |= pos[k]
	}

	idxs := make([]int, dim)
	old := make([]complex64, dim)
	for base := range len(state) {
		if base&mask != 0 {
			continue
		}

		for j := range dim {
			idx := base
			for k := range m {
				if j&(1<<(m-1-k)) != 0 {
					idx |= pos[k]
				}
			}
			idxs[j] = idx
			old[j] = state[idx]
		}

		for i := range dim {
			var s complex128
			for j := range dim {
				s += complex128(g.U.At(i, j)) * complex128(old[j])
			}
			state[idxs[i]] = complex64(s)
		}
	}
}
