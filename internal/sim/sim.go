// Package sim is a dense statevector backend.
//
// Wire 0 is the most significant bit of a basis index, so on two wires
// index 1 is |01> (wire 1 set). Every operation is exact up to float64
// rounding; there is no sampling.
package sim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/floats"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/ir"
)

// DefaultMaxWires bounds the register size; 2^24 amplitudes is 256 MiB.
const DefaultMaxWires = 24

// normTolerance is the accepted deviation from unit norm for prepared states.
const normTolerance = 1e-8

// Backend is the statevector backend.
type Backend struct {
	// MaxWires bounds Open. Zero means DefaultMaxWires.
	MaxWires int

	gates backend.Table
}

// New creates a statevector backend with the standard gate table.
func New() *Backend {
	return &Backend{gates: backend.Standard()}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "statevector" }

// Gates implements backend.Backend.
func (b *Backend) Gates() backend.Table {
	if b.gates == nil {
		b.gates = backend.Standard()
	}
	return b.gates
}

// Open implements backend.Backend.
func (b *Backend) Open(ctx context.Context, width int) (backend.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := b.MaxWires
	if limit == 0 {
		limit = DefaultMaxWires
	}
	if width <= 0 || width > limit {
		return nil, fmt.Errorf("statevector: width %d outside [1, %d]", width, limit)
	}
	amps := make([]complex128, 1<<width)
	amps[0] = 1
	return &Device{width: width, amps: amps}, nil
}

// Device is a statevector over a fixed number of wires.
type Device struct {
	width int
	amps  []complex128
}

// Width implements backend.Device.
func (d *Device) Width() int { return d.width }

// bit returns the basis-index mask of wire w.
func (d *Device) bit(w int) int {
	return 1 << (d.width - 1 - w)
}

func (d *Device) checkWires(wires []int) error {
	seen := 0
	for _, w := range wires {
		if w < 0 || w >= d.width {
			return fmt.Errorf("statevector: wire %d out of range [0, %d)", w, d.width)
		}
		if seen&d.bit(w) != 0 {
			return fmt.Errorf("statevector: wire %d used twice", w)
		}
		seen |= d.bit(w)
	}
	return nil
}

// Apply implements backend.Device.
func (d *Device) Apply(u backend.Matrix, wires []int) error {
	return d.ApplyControlled(u, nil, wires)
}

// ApplyControlled implements backend.Device.
//
// For every basis index whose control bits are all set and whose target
// bits are all clear, the 2^k amplitudes spanned by the targets are
// gathered, multiplied by u and scattered back.
func (d *Device) ApplyControlled(u backend.Matrix, controls, targets []int) error {
	all := append(append([]int{}, controls...), targets...)
	if err := d.checkWires(all); err != nil {
		return err
	}
	dim := 1 << len(targets)
	if len(u) != dim {
		return fmt.Errorf("statevector: %dx%d matrix for %d target wire(s)", len(u), len(u), len(targets))
	}

	ctrlMask := 0
	for _, c := range controls {
		ctrlMask |= d.bit(c)
	}
	tgtMask := 0
	offsets := make([]int, dim)
	for j := range offsets {
		for k, t := range targets {
			if j&(1<<(len(targets)-1-k)) != 0 {
				offsets[j] |= d.bit(t)
			}
		}
	}
	for _, t := range targets {
		tgtMask |= d.bit(t)
	}

	in := make([]complex128, dim)
	for base := range d.amps {
		if base&tgtMask != 0 || base&ctrlMask != ctrlMask {
			continue
		}
		for j, off := range offsets {
			in[j] = d.amps[base|off]
		}
		for r, off := range offsets {
			var acc complex128
			for c, v := range in {
				acc += u[r][c] * v
			}
			d.amps[base|off] = acc
		}
	}
	return nil
}

// Prepare implements backend.Device.
//
// The prepared wires are assumed to hold |0>: the amplitude of every index
// with those bits clear is spread over the new local state. If the wires
// were not in |0> the result loses norm and an error is returned.
func (d *Device) Prepare(amplitudes []complex128, wires []int) error {
	if err := d.checkWires(wires); err != nil {
		return err
	}
	if len(amplitudes) != 1<<len(wires) {
		return fmt.Errorf("statevector: %d amplitudes for %d wire(s)", len(amplitudes), len(wires))
	}
	if n := cmplxs.Norm(amplitudes, 2); math.Abs(n-1) > normTolerance {
		return fmt.Errorf("statevector: state vector has norm %g, want 1", n)
	}

	mask := 0
	offsets := make([]int, len(amplitudes))
	for j := range offsets {
		for k, w := range wires {
			if j&(1<<(len(wires)-1-k)) != 0 {
				offsets[j] |= d.bit(w)
			}
		}
	}
	for _, w := range wires {
		mask |= d.bit(w)
	}

	next := make([]complex128, len(d.amps))
	for base, a := range d.amps {
		if base&mask != 0 || a == 0 {
			continue
		}
		for j, off := range offsets {
			next[base|off] = a * amplitudes[j]
		}
	}
	if n := cmplxs.Norm(next, 2); math.Abs(n-1) > normTolerance {
		return fmt.Errorf("statevector: wires %v are not in |0> before preparation", wires)
	}
	d.amps = next
	return nil
}

// State implements backend.Device. The returned slice is a copy.
func (d *Device) State() ([]complex128, error) {
	return append([]complex128(nil), d.amps...), nil
}

// Probabilities implements backend.Device.
func (d *Device) Probabilities(wires []int) ([]float64, error) {
	if err := d.checkWires(wires); err != nil {
		return nil, err
	}
	probs := make([]float64, 1<<len(wires))
	for i, a := range d.amps {
		idx := 0
		for k, w := range wires {
			if i&d.bit(w) != 0 {
				idx |= 1 << (len(wires) - 1 - k)
			}
		}
		probs[idx] += real(a)*real(a) + imag(a)*imag(a)
	}
	if total := floats.Sum(probs); total > 0 {
		floats.Scale(1/total, probs)
	}
	return probs, nil
}

// Expectation implements backend.Device.
func (d *Device) Expectation(h *ir.Hamiltonian) (float64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	var total float64
	for _, term := range h.Terms {
		phi := &Device{width: d.width, amps: append([]complex128(nil), d.amps...)}
		for _, f := range term.Factors {
			m, ok := backend.ObservableMatrix(f.Observable)
			if !ok {
				return 0, fmt.Errorf("statevector: unknown observable %q", f.Observable)
			}
			if err := phi.Apply(m, []int{f.Wire}); err != nil {
				return 0, err
			}
		}
		// <psi|O|psi>; observables are Hermitian so the imaginary part is rounding
		total += term.Coeff * real(cmplxs.Dot(d.amps, phi.amps))
	}
	return total, nil
}
