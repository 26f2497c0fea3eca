package circuit

import (
	"context"
	"log/slog"

	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
)

// Program is a circuit under construction. It becomes sealed after the
// first successful Compile; the executable is cached from then on.
type Program struct {
	ir      *ir.Program
	lowerer Lowerer
	logger  *slog.Logger
	exe     *compiler.Executable
}

// Width returns the register width.
func (p *Program) Width() int { return p.ir.Width }

// Len returns the number of appended instructions.
func (p *Program) Len() int { return len(p.ir.Ops) }

// Compiled reports whether the program is sealed.
func (p *Program) Compiled() bool { return p.exe != nil }

// Append adds one instruction. Appending to a compiled program fails with
// a SEALED_PROGRAM error.
func (p *Program) Append(instr ir.Instruction) error {
	return p.append(instr)
}

func (p *Program) append(ops ...ir.Instruction) error {
	if p.exe != nil {
		return ir.Errorf(ir.ErrCodeSealedProgram, "append", "program is compiled; build a new program instead")
	}
	for _, op := range ops {
		p.ir.Append(op)
	}
	return nil
}

// truncate drops every instruction after the first n. A compiled program
// is left alone.
func (p *Program) truncate(n int) {
	if p.exe != nil || n >= len(p.ir.Ops) {
		return
	}
	clear(p.ir.Ops[n:])
	p.ir.Ops = p.ir.Ops[:n]
}

// Compile canonicalizes and lowers the program. The first success is
// cached and returned by every later call.
func (p *Program) Compile() (*compiler.Executable, error) {
	if p.exe != nil {
		return p.exe, nil
	}
	if err := ir.Canonicalize(p.ir, p.lowerer.Known); err != nil {
		return nil, err
	}
	exe, err := p.lowerer.Lower(p.ir)
	if err != nil {
		return nil, err
	}
	p.exe = exe
	p.logger.Info("program compiled", "width", p.ir.Width, "ops", len(p.ir.Ops), "hash", exe.Hash())
	return exe, nil
}

// Invoke compiles if needed and runs the executable.
func (p *Program) Invoke(ctx context.Context) (*compiler.Result, error) {
	exe, err := p.Compile()
	if err != nil {
		return nil, err
	}
	return exe.Run(ctx)
}

// IR returns a deep copy of the instruction sequence for introspection.
func (p *Program) IR() *ir.Program { return p.ir.Clone() }

// Hash returns the content hash of the program's canonical form.
func (p *Program) Hash() (string, error) { return ir.ProgramHash(p.ir) }

// Inspect renders the program as "dict" or "text".
func (p *Program) Inspect(format string) (string, error) { return ir.Inspect(p.ir, format) }
