package circuit

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"github.com/fumin/qprep/mps"
)

const (
	// rankTol is the relative threshold below which a column is considered
	// linearly dependent on its predecessors. The whole stack is complex64,
	// so this sits well above float32 rounding noise.
	rankTol = 1e-5
	// unitaryTol bounds the acceptable deviation of U^dagger U from the
	// identity for every synthesized matrix.
	unitaryTol = 1e-3
)

var (
	// ErrRankDeficient signals that the columns of a site tensor are
	// linearly dependent beyond rankTol, so no unitary can reproduce its
	// action. The matrix returned alongside it is still a valid unitary
	// built from a best-effort complement.
	ErrRankDeficient = errors.New("rank deficient tensor")
	// ErrOrderingMismatch signals disagreement between the index convention
	// of the isometry builder and that of the circuit assembler.
	// It indicates a programming defect and is never recoverable.
	ErrOrderingMismatch = errors.New("index ordering mismatch")
)

// Isometry builds the site unitary of one tensor A[p, l, r]. The result is a
// (d*chi) x (d*chi) matrix whose column l equals, for l < chi, the vector
// with entries A[p, l, r] at the joint row index p*chi+r. The remaining
// columns are a deterministic orthonormal completion, obtained by
// Gram-Schmidt over the standard basis, so equal inputs always yield equal
// outputs. Columns that are linearly dependent beyond tolerance are replaced
// by fresh basis directions and reported as ErrRankDeficient; the returned
// matrix is a valid unitary either way.
func Isometry(a *tensor.Dense) (*tensor.Dense, error) {
	s := a.Shape()
	if len(s) != 3 || s[mps.LeftAxis] != s[mps.RightAxis] {
		return nil, errors.Errorf("not a site tensor: %#v", s)
	}
	d, chi := s[mps.PhysAxis], s[mps.LeftAxis]
	dim := d * chi

	cols := make([][]complex64, 0, chi)
	for l := range chi {
		col := make([]complex64, dim)
		for p := range d {
			for r := range chi {
				col[jointIndex(p, r, chi)] = a.At(p, l, r)
			}
		}
		cols = append(cols, col)
	}

	basis, err := complete(cols, dim)
	u := fromColumns(basis)
	if ue := UnitarityError(u); ue > unitaryTol {
		return nil, errors.Errorf("completion not unitary: %g", ue)
	}
	return u, err
}

// Prepare builds a chi x chi unitary whose first column is the normalized
// target vector, so that applying it to the all-zeros register prepares the
// target state.
func Prepare(v []complex64) (*tensor.Dense, error) {
	chi := len(v)
	if chi&(chi-1) != 0 {
		return nil, errors.Errorf("length %d not a power of two", chi)
	}

	n := norm(v)
	if n == 0 {
		return nil, errors.Errorf("zero preparation target")
	}
	col := make([]complex64, chi)
	for i, x := range v {
		col[i] = complex64(complex128(x) / complex(n, 0))
	}

	basis, err := complete([][]complex64{col}, chi)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	u := fromColumns(basis)
	if ue := UnitarityError(u); ue > unitaryTol {
		return nil, errors.Errorf("completion not unitary: %g", ue)
	}
	return u, nil
}

// UnitarityError returns the largest deviation of U^dagger U from the
// identity. The Gram entries are accumulated in complex128.
func UnitarityError(u *tensor.Dense) float64 {
	s := u.Shape()
	if len(s) != 2 || s[0] != s[1] {
		panic(fmt.Sprintf("%#v", s))
	}
	n := s[0]

	var e float64
	for i := range n {
		for j := range n {
			var g complex128
			for k := range n {
				g += cmplx.Conj(complex128(u.At(k, i))) * complex128(u.At(k, j))
			}
			var want complex128
			if i == j {
				want = 1
			}
			e = max(e, cmplx.Abs(g-want))
		}
	}
	return e
}

// jointIndex is the row index of a site unitary for physical index p and
// right bond index r. The physical index is the most significant.
func jointIndex(p, r, chi int) int {
	return p*chi + r
}

// complete extends the given columns to dim orthonormal columns.
// The completion is deterministic: candidate directions are the standard
// basis vectors in order, orthogonalized against what is already there.
func complete(cols [][]complex64, dim int) ([][]complex64, error) {
	basis := make([][]complex64, 0, dim)
	var err error
	for j, col := range cols {
		v := make([]complex64, dim)
		copy(v, col)
		orthogonalize(v, basis)

		n := norm(v)
		if n <= rankTol*max(norm(col), 1) {
			if err == nil {
				err = errors.Wrapf(ErrRankDeficient, "column %d", j)
			}
			basis = append(basis, substitute(basis, dim))
			continue
		}
		divide(v, n)
		basis = append(basis, v)
	}

	for len(basis) < dim {
		basis = append(basis, substitute(basis, dim))
	}
	return basis, err
}

// substitute returns the standard basis vector with the largest component
// outside the span of basis, orthonormalized against it. Ties keep the
// lowest index, so the choice is deterministic.
func substitute(basis [][]complex64, dim int) []complex64 {
	var best []complex64
	var bestNorm float64
	for k := range dim {
		v := make([]complex64, dim)
		v[k] = 1
		orthogonalize(v, basis)

		if n := norm(v); n > bestNorm {
			best, bestNorm = v, n
		}
	}
	if bestNorm <= rankTol {
		panic(fmt.Sprintf("no direction left outside a %d-dimensional span", dim))
	}
	divide(best, bestNorm)
	return best
}

func orthogonalize(v []complex64, basis [][]complex64) {
	// Two rounds, for float32 stability.
	for range 2 {
		for _, b := range basis {
			c := dot(b, v)
			for i := range v {
				v[i] -= c * b[i]
			}
		}
	}
}

func dot(a, b []complex64) complex64 {
	var s complex128
	for i := range a {
		s += cmplx.Conj(complex128(a[i])) * complex128(b[i])
	}
	return complex64(s)
}

func norm(v []complex64) float64 {
	var s float64
	for _, x := range v {
		s += float64(real(x))*float64(real(x)) + float64(imag(x))*float64(imag(x))
	}
	return math.Sqrt(s)
}

func divide(v []complex64, n float64) {
	for i, x := range v {
		v[i] = complex64(complex128(x) / complex(n, 0))
	}
}

func fromColumns(cols [][]complex64) *tensor.Dense {
	dim := len(cols)
	u := tensor.Zeros(dim, dim)
	for j, col := range cols {
		for i, v := range col {
			if v != 0 {
				u.SetAt([]int{i, j}, v)
			}
		}
	}
	return u
}
