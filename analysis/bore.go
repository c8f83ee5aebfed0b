package analysis

import (
	"fmt"
	"math"

	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"
)

// SpeedOfSound is the speed of sound in air at 20 °C in m/s.
const SpeedOfSound = 343.0

const boreGridPoints = 256

// BoreModes returns the first n resonance frequencies in Hz of an ideal
// cylindrical pipe open at both ends. Pressure vanishes at the open ends, so
// the modes follow from the Dirichlet eigenvalues of the discrete Laplacian
// on the bore axis: f = c*sqrt(lambda)/(2*pi).
func BoreModes(lengthM, speedOfSound float64, n int) ([]float64, error) {
	if !(lengthM > 0) || math.IsInf(lengthM, 0) {
		return nil, fmt.Errorf("analysis: invalid bore length %g", lengthM)
	}
	if !(speedOfSound > 0) || math.IsInf(speedOfSound, 0) {
		return nil, fmt.Errorf("analysis: invalid speed of sound %g", speedOfSound)
	}
	if n < 1 {
		return nil, fmt.Errorf("analysis: mode count must be >= 1, got %d", n)
	}
	grid := boreGridPoints
	if grid < 16*n {
		grid = 16 * n
	}
	h := lengthM / float64(grid+1)
	eig := pdefd.Eigenvalues(grid, h, pdepoisson.Dirichlet)

	out := make([]float64, 0, n)
	for _, lambda := range eig {
		if len(out) == n {
			break
		}
		if lambda <= 0 {
			continue
		}
		out = append(out, speedOfSound*math.Sqrt(lambda)/(2*math.Pi))
	}
	if len(out) < n {
		return nil, fmt.Errorf("analysis: only %d bore modes available", len(out))
	}
	return out, nil
}

// BoreFrequency returns the lowest resonance of an open-open bore.
func BoreFrequency(lengthM, speedOfSound float64) (float64, error) {
	modes, err := BoreModes(lengthM, speedOfSound, 1)
	if err != nil {
		return 0, err
	}
	return modes[0], nil
}
