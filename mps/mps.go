// Package mps describes matrix product states.
//
// A matrix product state is a chain of site tensors A[p, l, r], where p is
// the physical index, and l, r are the left and right bond indices, together
// with a boundary vector at each open end of the chain. The amplitude of the
// physical configuration (p1, ..., pN) is
//
//	initial · A_{p1} · A_{p2} · ... · A_{pN} · final.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
package mps

import (
	"math"
	"math/rand/v2"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

const (
	// PhysAxis is the axis of the physical index p in A[p, l, r].
	PhysAxis = 0
	// LeftAxis is the axis of the left bond index l.
	LeftAxis = 1
	// RightAxis is the axis of the right bond index r.
	RightAxis = 2
)

var (
	// ErrDimensionMismatch signals site tensors or boundary vectors with
	// inconsistent physical or bond dimensions.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidBondDimension signals a bond dimension that is not a power
	// of two. Callers requiring other bond dimensions should pad first.
	ErrInvalidBondDimension = errors.New("bond dimension not a power of two")
)

// A Description is a matrix product state: an ordered chain of site tensors
// sharing one physical and one bond dimension, plus the two boundary vectors.
// A Description is read-only once constructed.
type Description struct {
	// Sites are the site tensors, each of shape (physical, bond, bond).
	Sites []*tensor.Dense
	// Initial is the boundary vector terminating the left end of the chain.
	Initial []complex64
	// Final is the boundary vector terminating the right end of the chain.
	Final []complex64
}

// New validates the chain and returns its description.
// The bond dimension must be a power of two; use NewPadded otherwise.
func New(sites []*tensor.Dense, initial, final []complex64) (*Description, error) {
	dsc := &Description{Sites: sites, Initial: initial, Final: final}
	chi, err := dsc.validate()
	if err != nil {
		return nil, err
	}
	if chi&(chi-1) != 0 {
		return nil, errors.Wrapf(ErrInvalidBondDimension, "%d", chi)
	}
	return dsc, nil
}

// NewPadded embeds the chain into the next power-of-two bond dimension by
// zero-extension, and returns the padded description. Padded bond directions
// carry zero amplitude, so the represented state is exactly preserved.
func NewPadded(sites []*tensor.Dense, initial, final []complex64) (*Description, error) {
	dsc := &Description{Sites: sites, Initial: initial, Final: final}
	chi, err := dsc.validate()
	if err != nil {
		return nil, err
	}

	chiP := 1
	for chiP < chi {
		chiP *= 2
	}
	if chiP == chi {
		return dsc, nil
	}

	d := dsc.PhysDim()
	padded := make([]*tensor.Dense, 0, len(sites))
	for _, site := range sites {
		p := tensor.Zeros(d, chiP, chiP)
		for ijk, v := range site.All() {
			p.SetAt(ijk, v)
		}
		padded = append(padded, p)
	}
	return &Description{
		Sites:   padded,
		Initial: padVector(initial, chiP),
		Final:   padVector(final, chiP),
	}, nil
}

// Len returns the number of sites in the chain.
func (dsc *Description) Len() int { return len(dsc.Sites) }

// PhysDim returns the physical dimension d.
func (dsc *Description) PhysDim() int { return dsc.Sites[0].Shape()[PhysAxis] }

// BondDim returns the bond dimension.
func (dsc *Description) BondDim() int { return dsc.Sites[0].Shape()[LeftAxis] }

func (dsc *Description) validate() (int, error) {
	if len(dsc.Sites) == 0 {
		return -1, errors.Errorf("empty chain")
	}

	s0 := dsc.Sites[0].Shape()
	if len(s0) != 3 {
		return -1, errors.Wrapf(ErrDimensionMismatch, "site 0 shape %#v", s0)
	}
	d, chi := s0[PhysAxis], s0[LeftAxis]
	for i, site := range dsc.Sites {
		s := site.Shape()
		if len(s) != 3 || s[PhysAxis] != d || s[LeftAxis] != chi || s[RightAxis] != chi {
			return -1, errors.Wrapf(ErrDimensionMismatch, "site %d shape %#v, expected (%d, %d, %d)", i, s, d, chi, chi)
		}
	}

	for _, b := range [][]complex64{dsc.Initial, dsc.Final} {
		if len(b) != chi {
			return -1, errors.Wrapf(ErrDimensionMismatch, "boundary length %d, expected %d", len(b), chi)
		}
		if vecNorm(b) == 0 {
			return -1, errors.Errorf("zero boundary vector")
		}
	}

	return chi, nil
}

// GHZ returns the matrix product state of the n-site
// Greenberger-Horne-Zeilinger state (|00...0> + |11...1>)/sqrt(2).
func GHZ(n int) *Description {
	sites := make([]*tensor.Dense, 0, n)
	for range n {
		a := tensor.Zeros(2, 2, 2)
		a.SetAt([]int{0, 0, 0}, 1)
		a.SetAt([]int{1, 1, 1}, 1)
		sites = append(sites, a)
	}

	s := complex(float32(1/math.Sqrt2), 0)
	return &Description{
		Sites:   sites,
		Initial: []complex64{s, s},
		Final:   []complex64{s, s},
	}
}

// Rand returns a random chain of n sites with physical dimension d and bond
// dimension chi, drawn from the given generator.
func Rand(rng *rand.Rand, n, d, chi int) *Description {
	sites := make([]*tensor.Dense, 0, n)
	for range n {
		sites = append(sites, randTensor(rng, d, chi, chi))
	}
	return &Description{
		Sites:   sites,
		Initial: randVector(rng, chi),
		Final:   randVector(rng, chi),
	}
}

func randTensor(rng *rand.Rand, shape ...int) *tensor.Dense {
	t := tensor.Zeros(shape...)
	for ijk := range t.All() {
		v := complex(rng.Float32()*2-1, rng.Float32()*2-1)
		t.SetAt(ijk, v)
	}
	return t
}

func randVector(rng *rand.Rand, n int) []complex64 {
	v := make([]complex64, n)
	for i := range v {
		v[i] = complex(rng.Float32()*2-1, rng.Float32()*2-1)
	}
	return v
}

func padVector(v []complex64, n int) []complex64 {
	p := make([]complex64, n)
	copy(p, v)
	return p
}

func vecNorm(v []complex64) float64 {
	var s float64
	for _, x := range v {
		s += float64(real(x))*float64(real(x)) + float64(imag(x))*float64(imag(x))
	}
	return math.Sqrt(s)
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}
