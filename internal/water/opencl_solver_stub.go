//go:build !opencl

package water

import "fmt"

func newGPUSolver(*HeightField) (stepSolver, error) {
	return nil, fmt.Errorf("rebuild with -tags opencl: %w", ErrGPUUnavailable)
}
