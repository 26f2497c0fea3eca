// Package chem derives Hartree-Fock reference states.
package chem

import (
	"github.com/roach88/qdsl/internal/ir"
)

// HFState returns the Hartree-Fock basis bitstring for electrons electrons
// in orbitals spin orbitals under the given qubit encoding.
//
// In occupation-number form the lowest electrons orbitals are occupied.
// Parity and Bravyi-Kitaev forms are the occupation vector multiplied by
// the respective transformation matrix, mod 2.
func HFState(electrons, orbitals int, encoding ir.Encoding) ([]int, error) {
	if electrons <= 0 {
		return nil, ir.Errorf(ir.ErrCodeValidation, "HartreeFock", "electrons must be positive, got %d", electrons)
	}
	if orbitals <= 0 {
		return nil, ir.Errorf(ir.ErrCodeValidation, "HartreeFock", "orbitals must be positive, got %d", orbitals)
	}
	if electrons > orbitals {
		return nil, ir.Errorf(ir.ErrCodeValidation, "HartreeFock",
			"electrons (%d) cannot exceed orbitals (%d)", electrons, orbitals)
	}

	occ := make([]int, orbitals)
	for i := 0; i < electrons; i++ {
		occ[i] = 1
	}

	switch encoding {
	case ir.EncodingOccupation, "":
		return occ, nil
	case ir.EncodingParity:
		parity := make([]int, orbitals)
		acc := 0
		for i, b := range occ {
			acc ^= b
			parity[i] = acc
		}
		return parity, nil
	case ir.EncodingBravyiKitaev:
		return mulMod2(betaMatrix(orbitals), occ), nil
	default:
		return nil, ir.Errorf(ir.ErrCodeValidation, "HartreeFock", "unknown encoding %q", encoding)
	}
}

// betaMatrix builds the Bravyi-Kitaev transformation matrix truncated to
// n x n. It starts from [[1]] and doubles: beta' = I2 (x) beta with the
// first half of the last row set to one.
func betaMatrix(n int) [][]int {
	beta := [][]int{{1}}
	for size := 1; size < n; size *= 2 {
		next := make([][]int, 2*size)
		for i := range next {
			next[i] = make([]int, 2*size)
		}
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				next[i][j] = beta[i][j]
				next[i+size][j+size] = beta[i][j]
			}
		}
		for j := 0; j < size; j++ {
			next[2*size-1][j] = 1
		}
		beta = next
	}
	out := make([][]int, n)
	for i := range out {
		out[i] = beta[i][:n]
	}
	return out
}

func mulMod2(m [][]int, v []int) []int {
	out := make([]int, len(m))
	for i, row := range m {
		sum := 0
		for j, x := range row {
			sum += x * v[j]
		}
		out[i] = sum % 2
	}
	return out
}
