package ir

// Program is the frozen-by-convention instruction sequence for a fixed
// register width. It exclusively owns its instructions.
type Program struct {
	Width int
	Ops   []Instruction
}

// NewProgram creates an empty program of the given width.
func NewProgram(width int) *Program {
	return &Program{Width: width, Ops: []Instruction{}}
}

// Append adds an instruction to the end of the sequence.
func (p *Program) Append(instr Instruction) {
	p.Ops = append(p.Ops, instr)
}

// Gates returns the gate instructions in sequence order.
func (p *Program) Gates() []Gate {
	var gates []Gate
	for _, op := range p.Ops {
		if g, ok := op.(Gate); ok {
			gates = append(gates, g)
		}
	}
	return gates
}

// Measurements returns the measurement instructions in sequence order.
func (p *Program) Measurements() []Measurement {
	var ms []Measurement
	for _, op := range p.Ops {
		if m, ok := op.(Measurement); ok {
			ms = append(ms, m)
		}
	}
	return ms
}

// Clone returns a deep copy sharing no slices with p.
func (p *Program) Clone() *Program {
	out := &Program{Width: p.Width, Ops: make([]Instruction, len(p.Ops))}
	for i, op := range p.Ops {
		out.Ops[i] = op.clone()
	}
	return out
}

// CanonicalMap returns the program as plain maps and slices, suitable for
// MarshalCanonical.
func (p *Program) CanonicalMap() map[string]any {
	ops := make([]any, len(p.Ops))
	for i, op := range p.Ops {
		ops[i] = op.canonical()
	}
	return map[string]any{
		"ir_version": IRVersion,
		"width":      p.Width,
		"ops":        ops,
	}
}
