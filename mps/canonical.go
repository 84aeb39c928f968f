package mps

import (
	"github.com/fumin/tensor"
)

// RightNormalized returns an equivalent chain in which every site tensor is
// right-canonical, that is sum_p A_p A_p^dagger = I. The triangular factors
// of the LQ sweep are absorbed into the initial boundary vector, so the
// contraction of the returned chain equals that of the original exactly.
// See Section 4.4.2 Generation of a right-canonical MPS, Ulrich Schollwock.
func (dsc *Description) RightNormalized() *Description {
	d, chi := dsc.PhysDim(), dsc.BondDim()

	sites := make([]*tensor.Dense, len(dsc.Sites))
	for i, s := range dsc.Sites {
		sites[i] = resetCopy(tensor.Zeros(1), s)
	}
	initial := padVector(dsc.Initial, chi)

	for i := len(sites) - 1; i >= 0; i-- {
		// View site i as a chi x (d*chi) matrix with rows indexed by the
		// left bond, and decompose it as l @ q with q row-orthonormal.
		mi := resetCopy(tensor.Zeros(1), sites[i].Transpose(LeftAxis, PhysAxis, RightAxis)).Reshape(chi, d*chi)
		q := tensor.Zeros(1)
		l := lq(q, mi, [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)})

		// Site i becomes the row-orthonormal factor.
		qm := resetCopy(tensor.Zeros(1), q.H()).Reshape(chi, d, chi)
		sites[i] = resetCopy(tensor.Zeros(1), qm.Transpose(1, 0, 2))

		switch {
		case i > 0:
			// sites[i-1] = sites[i-1] @ l.
			axes := [][2]int{{RightAxis, 0}}
			prod := tensor.Contract(tensor.Zeros(1), sites[i-1], l, axes)
			sites[i-1] = resetCopy(tensor.Zeros(1), prod)
		default:
			// The leftover factor moves into the initial boundary vector.
			for m := range chi {
				var s complex64
				for lb := range chi {
					s += dsc.Initial[lb] * l.At(lb, m)
				}
				initial[m] = s
			}
		}
	}

	return &Description{Sites: sites, Initial: initial, Final: padVector(dsc.Final, chi)}
}

func lq(q, a *tensor.Dense, bufs [2]*tensor.Dense) *tensor.Dense {
	r := tensor.QR(q, a.H(), bufs)
	return r.H()
}
