package mps

import (
	stderrors "errors"
	"fmt"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/fumin/tensor"

	"github.com/fumin/qprep/amp"
)

func TestNewErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		sites   []*tensor.Dense
		initial []complex64
		final   []complex64
		err     error
	}{
		{
			name:    "physical dimension differs",
			sites:   []*tensor.Dense{tensor.Zeros(2, 2, 2), tensor.Zeros(3, 2, 2)},
			initial: []complex64{1, 0},
			final:   []complex64{1, 0},
			err:     ErrDimensionMismatch,
		},
		{
			name:    "bond dimension differs",
			sites:   []*tensor.Dense{tensor.Zeros(2, 2, 2), tensor.Zeros(2, 4, 4)},
			initial: []complex64{1, 0},
			final:   []complex64{1, 0},
			err:     ErrDimensionMismatch,
		},
		{
			name:    "left and right bonds differ",
			sites:   []*tensor.Dense{tensor.Zeros(2, 2, 4)},
			initial: []complex64{1, 0},
			final:   []complex64{1, 0},
			err:     ErrDimensionMismatch,
		},
		{
			name:    "boundary length wrong",
			sites:   []*tensor.Dense{tensor.Zeros(2, 2, 2)},
			initial: []complex64{1, 0, 0},
			final:   []complex64{1, 0},
			err:     ErrDimensionMismatch,
		},
		{
			name:    "bond dimension not a power of two",
			sites:   []*tensor.Dense{tensor.Zeros(2, 3, 3)},
			initial: []complex64{1, 0, 0},
			final:   []complex64{1, 0, 0},
			err:     ErrInvalidBondDimension,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(test.sites, test.initial, test.final)
			if !stderrors.Is(err, test.err) {
				t.Fatalf("%v, expected %v", err, test.err)
			}
		})
	}
}

func TestNewZeroBoundary(t *testing.T) {
	t.Parallel()
	sites := []*tensor.Dense{tensor.Zeros(2, 2, 2)}
	if _, err := New(sites, []complex64{0, 0}, []complex64{1, 0}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewPaddedLossless(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(5, 7))
	const n, d, chi = 3, 2, 3
	raw := Rand(rng, n, d, chi)

	padded, err := NewPadded(raw.Sites, raw.Initial, raw.Final)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if padded.BondDim() != 4 {
		t.Fatalf("%d, expected %d", padded.BondDim(), 4)
	}

	got := padded.Contract(SiteMajor)
	want := raw.Contract(SiteMajor)
	if diff := amp.MaxDiff(got, want); diff > 1e-6 {
		t.Fatalf("diff %g", diff)
	}
}

func TestContractGHZ(t *testing.T) {
	t.Parallel()
	const n = 5
	got := GHZ(n).Contract(SiteMajor)

	want := make([]complex64, 1<<n)
	want[0], want[len(want)-1] = 0.5, 0.5
	if diff := amp.MaxDiff(got, want); diff > 1e-6 {
		t.Fatalf("%v, expected %v", got, want)
	}
}

func TestContractOrdering(t *testing.T) {
	t.Parallel()
	// A product state of two sites, so every amplitude is known exactly.
	a1 := tensor.Zeros(2, 1, 1)
	a1.SetAt([]int{0, 0, 0}, 1)
	a1.SetAt([]int{1, 0, 0}, 2)
	a2 := tensor.Zeros(2, 1, 1)
	a2.SetAt([]int{0, 0, 0}, 3)
	a2.SetAt([]int{1, 0, 0}, 5)
	dsc, err := New([]*tensor.Dense{a1, a2}, []complex64{1}, []complex64{1})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	tests := []struct {
		ord  Ordering
		want []complex64
	}{
		{ord: SiteMajor, want: []complex64{3, 5, 6, 10}},
		{ord: SiteMinor, want: []complex64{3, 6, 5, 10}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.ord), func(t *testing.T) {
			t.Parallel()
			got := dsc.Contract(test.ord)
			if diff := amp.MaxDiff(got, test.want); diff > 1e-6 {
				t.Fatalf("%v, expected %v", got, test.want)
			}
		})
	}
}

func TestContractBond(t *testing.T) {
	t.Parallel()
	const n = 2
	dsc := GHZ(n)
	got := dsc.ContractBond()

	// The GHZ chain leaves the bond register pointing at the emitted value.
	s := complex(float32(0.70710677), 0)
	want := make([]complex64, (1<<n)*2)
	want[0*2+0] = s // 00, bond 0
	want[3*2+1] = s // 11, bond 1
	if diff := amp.MaxDiff(got, want); diff > 1e-5 {
		t.Fatalf("%v, expected %v", got, want)
	}
}

func TestRightNormalized(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(11, 13))
	tests := []struct {
		name string
		dsc  *Description
	}{
		{name: "random chi=4", dsc: Rand(rng, 3, 2, 4)},
		{name: "ghz", dsc: GHZ(4)},
		{name: "padded", dsc: mustPad(Rand(rng, 3, 2, 3))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			canon := test.dsc.RightNormalized()
			d, chi := canon.PhysDim(), canon.BondDim()

			// Every site satisfies sum_p A_p A_p^dagger = I.
			for i, site := range canon.Sites {
				for l := range chi {
					for l2 := range chi {
						var s complex64
						for p := range d {
							for r := range chi {
								s += site.At(p, l, r) * conj(site.At(p, l2, r))
							}
						}
						var want complex64
						if l == l2 {
							want = 1
						}
						if diff := abs(s - want); diff > 1e-4 {
							t.Fatalf("site %d (%d, %d): %v, expected %v", i, l, l2, s, want)
						}
					}
				}
			}

			// The contraction is preserved up to global phase and scale.
			got := amp.Normalize(canon.Contract(SiteMajor))
			want := amp.Normalize(test.dsc.Contract(SiteMajor))
			if diff := amp.MaxDiff(got, want); diff > 1e-4 {
				t.Fatalf("diff %g", diff)
			}
		})
	}
}

func mustPad(dsc *Description) *Description {
	padded, err := NewPadded(dsc.Sites, dsc.Initial, dsc.Final)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return padded
}

func conj(x complex64) complex64 {
	return complex(real(x), -imag(x))
}

func abs(x complex64) float32 {
	return float32(cmplx.Abs(complex128(x)))
}
