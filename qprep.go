// Package qprep converts matrix product states into quantum circuits that
// prepare them, and verifies the synthesized circuits against direct tensor
// contraction.
package qprep

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fumin/qprep/circuit"
	"github.com/fumin/qprep/mps"
)

// Synthesize converts a matrix product state into a circuit whose physical
// register carries the state once the ancilla register is contracted with
// the final boundary vector.
func Synthesize(dsc *mps.Description) (*circuit.Circuit, error) {
	c, err := circuit.Assemble(dsc)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return c, nil
}

// Amplitudes simulates the circuit and contracts its ancilla register with
// the final boundary vector of dsc, returning one amplitude per physical
// bitstring, first site most significant.
func Amplitudes(c *circuit.Circuit, dsc *mps.Description) []complex64 {
	state := circuit.Simulate(c)
	return circuit.Project(state, dsc.Final, c.AncillaLen, c.PhysicalLen)
}

// Probabilities simulates the circuit and returns the measurement
// distribution of the physical register.
func Probabilities(c *circuit.Circuit) []float64 {
	state := circuit.Simulate(c)
	probs := circuit.PhysicalProbabilities(state, c.AncillaLen, c.PhysicalLen)
	// Scale away the float32 drift so the distribution sums to one.
	floats.Scale(1/floats.Sum(probs), probs)
	return probs
}

// Sample draws measurement shots from the distribution using the given
// generator, and returns the count per outcome.
func Sample(rng *rand.Rand, probs []float64, shots int) []int {
	counts := make([]int, len(probs))
	for range shots {
		x := rng.Float64()
		i := 0
		for ; i < len(probs)-1; i++ {
			x -= probs[i]
			if x < 0 {
				break
			}
		}
		counts[i]++
	}
	return counts
}

// Statistics summarizes how sampled measurements relate to the exact
// distribution.
type Statistics struct {
	// Entropy is the Shannon entropy of the exact distribution, in nats.
	Entropy float64
	// TotalVariation is the distance between the empirical and the exact
	// distributions.
	TotalVariation float64
}

// GetStatistics computes summary statistics of sampled counts against the
// exact distribution.
func GetStatistics(probs []float64, counts []int) (Statistics, error) {
	if len(probs) != len(counts) {
		return Statistics{}, errors.Errorf("%d %d", len(probs), len(counts))
	}
	var shots int
	for _, c := range counts {
		shots += c
	}
	if shots == 0 {
		return Statistics{}, errors.Errorf("no shots")
	}

	var stats Statistics
	stats.Entropy = stat.Entropy(probs)
	var tv float64
	for i, p := range probs {
		tv += math.Abs(float64(counts[i])/float64(shots) - p)
	}
	stats.TotalVariation = tv / 2
	return stats, nil
}
