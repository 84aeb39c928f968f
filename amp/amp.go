// Package amp manipulates amplitude vectors.
//
// It owns the two index conventions used throughout this module:
// the "tensor" convention where the first site's index is the most
// significant digit, and the "register" convention used by circuit back ends
// where it is the least significant.
// No other package is allowed to permute amplitude indices.
package amp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// phaseTol decides which entries count as nonzero when extracting the
// reference phase in Normalize, relative to the largest modulus.
const phaseTol = 1e-6

// ReverseDigits permutes v between the two digit-ordering conventions over
// the given base. The length of v must be a power of base.
// ReverseDigits is its own inverse.
func ReverseDigits(v []complex64, base int) []complex64 {
	n := 0
	for m := 1; m < len(v); m *= base {
		n++
		if m*base > len(v) {
			panic(fmt.Sprintf("%d %d", len(v), base))
		}
	}

	out := make([]complex64, len(v))
	for i, x := range v {
		out[reverse(i, base, n)] = x
	}
	return out
}

// ReverseBits permutes v between big-endian and little-endian qubit order.
// The length of v must be a power of two.
func ReverseBits(v []complex64) []complex64 {
	return ReverseDigits(v, 2)
}

// Transpose reorders v from row-major [rows, cols] to row-major [cols, rows].
func Transpose(v []complex64, rows, cols int) []complex64 {
	if len(v) != rows*cols {
		panic(fmt.Sprintf("%d %d %d", len(v), rows, cols))
	}
	out := make([]complex64, len(v))
	for r := range rows {
		for c := range cols {
			out[c*rows+r] = v[r*cols+c]
		}
	}
	return out
}

// Normalize divides v by the phase of its first significant entry and by its
// Euclidean norm, so that physically identical vectors become equal.
// A zero vector is returned unchanged.
func Normalize(v []complex64) []complex64 {
	out := make([]complex64, len(v))
	copy(out, v)

	var maxAbs float64
	for _, x := range v {
		maxAbs = max(maxAbs, cmplx.Abs(complex128(x)))
	}
	if maxAbs == 0 {
		return out
	}

	var phase complex128 = 1
	for _, x := range v {
		xa := cmplx.Abs(complex128(x))
		if xa > phaseTol*maxAbs {
			phase = complex128(x) / complex(xa, 0)
			break
		}
	}

	var norm2 float64
	for _, x := range v {
		norm2 += float64(real(x))*float64(real(x)) + float64(imag(x))*float64(imag(x))
	}
	scale := complex(math.Sqrt(norm2), 0) * phase
	for i, x := range out {
		out[i] = complex64(complex128(x) / scale)
	}
	return out
}

// MaxDiff returns the largest modulus of a-b over all components.
func MaxDiff(a, b []complex64) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("%d %d", len(a), len(b)))
	}
	var d float64
	for i := range a {
		d = max(d, cmplx.Abs(complex128(a[i]-b[i])))
	}
	return d
}

func reverse(i, base, n int) int {
	r := 0
	for range n {
		r = r*base + i%base
		i /= base
	}
	return r
}
