package testutil

import (
	"context"
	"fmt"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/ir"
)

// Recorder is a backend that performs no simulation. Every device call is
// appended to Calls as a short string, which lets tests check lowering
// without numerical results.
//
// Call formats:
//
//	open 3
//	apply 2x2 [0]
//	ctrl 2x2 [0 1] -> [2]
//	prepare 4 [0 1]
//	state
//	probs [0 1]
//	expval 1 * Z0
type Recorder struct {
	Table backend.Table
	Calls []string

	// Expval is returned by every Expectation call.
	Expval float64
}

// NewRecorder creates a recorder with the standard gate table.
func NewRecorder() *Recorder {
	return &Recorder{Table: backend.Standard()}
}

// Name implements backend.Backend.
func (r *Recorder) Name() string { return "recorder" }

// Gates implements backend.Backend.
func (r *Recorder) Gates() backend.Table { return r.Table }

// Open implements backend.Backend.
func (r *Recorder) Open(_ context.Context, width int) (backend.Device, error) {
	r.Calls = append(r.Calls, fmt.Sprintf("open %d", width))
	return &recordingDevice{r: r, width: width}, nil
}

// Opens counts how many devices were opened.
func (r *Recorder) Opens() int {
	n := 0
	for _, c := range r.Calls {
		if len(c) >= 5 && c[:5] == "open " {
			n++
		}
	}
	return n
}

type recordingDevice struct {
	r     *Recorder
	width int
}

func (d *recordingDevice) Width() int { return d.width }

func (d *recordingDevice) Apply(u backend.Matrix, wires []int) error {
	d.r.Calls = append(d.r.Calls, fmt.Sprintf("apply %dx%d %v", len(u), len(u), wires))
	return nil
}

func (d *recordingDevice) ApplyControlled(u backend.Matrix, controls, targets []int) error {
	d.r.Calls = append(d.r.Calls, fmt.Sprintf("ctrl %dx%d %v -> %v", len(u), len(u), controls, targets))
	return nil
}

func (d *recordingDevice) Prepare(amplitudes []complex128, wires []int) error {
	d.r.Calls = append(d.r.Calls, fmt.Sprintf("prepare %d %v", len(amplitudes), wires))
	return nil
}

func (d *recordingDevice) State() ([]complex128, error) {
	d.r.Calls = append(d.r.Calls, "state")
	state := make([]complex128, 1<<d.width)
	state[0] = 1
	return state, nil
}

func (d *recordingDevice) Probabilities(wires []int) ([]float64, error) {
	d.r.Calls = append(d.r.Calls, fmt.Sprintf("probs %v", wires))
	probs := make([]float64, 1<<len(wires))
	probs[0] = 1
	return probs, nil
}

func (d *recordingDevice) Expectation(h *ir.Hamiltonian) (float64, error) {
	d.r.Calls = append(d.r.Calls, fmt.Sprintf("expval %s", h))
	return d.r.Expval, nil
}
