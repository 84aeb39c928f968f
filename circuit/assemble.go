package circuit

import (
	"math/bits"
	"math/cmplx"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"github.com/fumin/qprep/mps"
)

// orderingTol bounds the acceptable deviation between a synthesized
// isometry block and the site tensor it must reproduce.
const orderingTol = 1e-3

// Assemble synthesizes the staircase circuit preparing the given state.
//
// The chain is first right-normalized, which turns every site tensor into an
// exact isometry and absorbs the leftover factors into the initial boundary
// vector. The circuit then prepares the ancilla register in the normalized
// initial boundary vector and applies one site unitary per site in order,
// each acting on the new physical qubit and the whole ancilla register.
//
// The resulting amplitude of physical state |p1...pN> with ancilla state |a>
// equals, up to one global phase and scale shared by all (p, a), the
// contraction initial . A_{p1} ... A_{pN} projected onto bond index a.
// Contracting the ancilla with the final boundary vector is left to the
// caller, see Project.
func Assemble(dsc *mps.Description) (*Circuit, error) {
	if dsc.PhysDim() != 2 {
		return nil, errors.Errorf("physical dimension %d, gates act on qubits", dsc.PhysDim())
	}
	chi := dsc.BondDim()
	if chi&(chi-1) != 0 {
		return nil, errors.Wrapf(mps.ErrInvalidBondDimension, "%d", chi)
	}
	n := bits.TrailingZeros(uint(chi))

	canon := dsc.RightNormalized()
	c := &Circuit{AncillaLen: n, PhysicalLen: canon.Len()}
	anc := make([]int, n)
	for i := range anc {
		anc[i] = i
	}

	if n > 0 {
		prep, err := Prepare(canon.Initial)
		if err != nil {
			return nil, errors.Wrap(err, "initial boundary")
		}
		c.Gates = append(c.Gates, GateOp{U: prep, Qubits: anc})
	}

	for i, site := range canon.Sites {
		u, err := Isometry(site)
		if err != nil {
			return nil, errors.Wrapf(err, "site %d", i)
		}
		if err := checkOrdering(u, site); err != nil {
			return nil, errors.Wrapf(err, "site %d", i)
		}

		qubits := append([]int{n + i}, anc...)
		c.Gates = append(c.Gates, GateOp{U: u, Qubits: qubits})
	}

	return c, nil
}

// checkOrdering verifies that the isometry block of u reproduces the site
// tensor under the p*chi+r row convention assumed by the assembler.
func checkOrdering(u, a *tensor.Dense) error {
	s := a.Shape()
	d, chi := s[mps.PhysAxis], s[mps.LeftAxis]

	var dev float64
	for p := range d {
		for l := range chi {
			for r := range chi {
				diff := u.At(jointIndex(p, r, chi), l) - a.At(p, l, r)
				dev = max(dev, cmplx.Abs(complex128(diff)))
			}
		}
	}
	if dev > orderingTol {
		return errors.Wrapf(ErrOrderingMismatch, "deviation %g", dev)
	}
	return nil
}
