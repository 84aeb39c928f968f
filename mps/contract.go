package mps

import (
	"github.com/fumin/qprep/amp"
)

// Ordering selects the digit convention of the amplitude vectors returned by
// Contract.
type Ordering int

const (
	// SiteMajor places the first site's physical index at the most
	// significant digit, the natural tensor convention.
	SiteMajor Ordering = iota
	// SiteMinor places the first site's physical index at the least
	// significant digit, the convention of little-endian circuit back ends.
	SiteMinor
)

// Contract computes the amplitude of every physical configuration by direct
// tensor contraction, including both boundary vectors. The result has length
// d^N in the requested ordering.
func (dsc *Description) Contract(ord Ordering) []complex64 {
	d, chi := dsc.PhysDim(), dsc.BondDim()

	out := make([]complex64, intPow(d, dsc.Len()))
	v, w := make([]complex64, chi), make([]complex64, chi)
	for i, ps := range configurations(dsc.Len(), d) {
		b := dsc.bondState(v, w, ps)

		var a complex64
		for r := range chi {
			a += b[r] * dsc.Final[r]
		}
		out[i] = a
	}

	if ord == SiteMinor {
		out = amp.ReverseDigits(out, d)
	}
	return out
}

// ContractBond computes the bond-resolved amplitude tensor, leaving the
// trailing bond index open instead of contracting it with the final boundary
// vector. The result has length d^N*chi, in site-major order with the bond
// index least significant.
func (dsc *Description) ContractBond() []complex64 {
	d, chi := dsc.PhysDim(), dsc.BondDim()

	out := make([]complex64, intPow(d, dsc.Len())*chi)
	v, w := make([]complex64, chi), make([]complex64, chi)
	for i, ps := range configurations(dsc.Len(), d) {
		b := dsc.bondState(v, w, ps)
		copy(out[i*chi:(i+1)*chi], b)
	}
	return out
}

// bondState returns the bond vector initial · A_{p1} · ... · A_{pN}.
// v and w are scratch buffers of length chi; the result aliases one of them.
func (dsc *Description) bondState(v, w []complex64, ps []int) []complex64 {
	chi := dsc.BondDim()
	copy(v, dsc.Initial)
	for k, site := range dsc.Sites {
		p := ps[k]
		for r := range chi {
			var s complex64
			for l := range chi {
				s += v[l] * site.At(p, l, r)
			}
			w[r] = s
		}
		v, w = w, v
	}
	return v
}

// configurations iterates over all physical configurations of n sites with
// physical dimension d, in site-major order.
func configurations(n, d int) func(yield func(int, []int) bool) {
	state := make([]int, n)
	return func(yield func(int, []int) bool) {
		num := intPow(d, n)
		for i := range num {
			indexDigits(state, d, i)
			if !yield(i, state) {
				return
			}
		}
	}
}

func indexDigits(state []int, base, i int) {
	for j := len(state) - 1; j >= 0; j-- {
		state[j] = i % base
		i /= base
	}
}

func intPow(base, exp int) int {
	p := 1
	for range exp {
		p *= base
	}
	return p
}
