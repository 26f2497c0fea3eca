package circuit

import (
	"fmt"
	"log/slog"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/blocks"
	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
	"github.com/roach88/qdsl/internal/sim"
)

// Lowerer turns a canonical IR program into an executable.
// *compiler.Compiler implements it.
type Lowerer interface {
	Known(kind ir.GateKind) bool
	Lower(p *ir.Program) (*compiler.Executable, error)
}

// Session is the builder context: a LIFO stack of open programs plus the
// block registry their builders draw from.
type Session struct {
	stack      []*Program
	blockDepth int
	registry   *blocks.Registry[Block]
	lowerer    Lowerer
	backend    backend.Backend
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry shares a block registry between sessions.
func WithRegistry(r *blocks.Registry[Block]) Option {
	return func(s *Session) { s.registry = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithBackend lowers programs for b instead of the statevector simulator.
func WithBackend(b backend.Backend) Option {
	return func(s *Session) { s.backend = b }
}

// WithLowerer replaces the compiler entirely. Takes precedence over
// WithBackend.
func WithLowerer(l Lowerer) Option {
	return func(s *Session) { s.lowerer = l }
}

// NewSession creates a session with an empty stack.
func NewSession(opts ...Option) *Session {
	s := &Session{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = blocks.NewRegistry[Block]()
	}
	if s.lowerer == nil {
		if s.backend == nil {
			s.backend = sim.New()
		}
		s.lowerer = compiler.New(s.backend, compiler.WithLogger(s.logger))
	}
	return s
}

// Registry returns the session's block registry.
func (s *Session) Registry() *blocks.Registry[Block] { return s.registry }

// Prepare creates an empty program of the given width, bound to the
// session's lowerer. It does not make the program current.
func (s *Session) Prepare(width int) (*Program, error) {
	if width <= 0 {
		return nil, ir.Errorf(ir.ErrCodeValidation, "prepare", "width must be a positive integer, got %d", width)
	}
	return &Program{ir: ir.NewProgram(width), lowerer: s.lowerer, logger: s.logger}, nil
}

// Enter pushes p onto the stack and returns the matching pop.
// Pops must happen in LIFO order; popping out of order panics.
func (s *Session) Enter(p *Program) (exit func()) {
	s.stack = append(s.stack, p)
	depth := len(s.stack)
	return func() {
		if len(s.stack) != depth || s.stack[depth-1] != p {
			panic(fmt.Sprintf("circuit: scope exit out of order (depth %d, want %d)", len(s.stack), depth))
		}
		s.stack[depth-1] = nil
		s.stack = s.stack[:depth-1]
	}
}

// Within makes p current for the duration of fn. p is popped on return,
// including when fn panics.
func (s *Session) Within(p *Program, fn func() error) error {
	exit := s.Enter(p)
	defer exit()
	return fn()
}

// Current returns the innermost open program.
func (s *Session) Current() (*Program, error) {
	if len(s.stack) == 0 {
		return nil, ir.Errorf(ir.ErrCodeNoActiveProgram, "current", "no active program; wrap builder calls in Within")
	}
	return s.stack[len(s.stack)-1], nil
}

// Depth returns the number of open programs.
func (s *Session) Depth() int { return len(s.stack) }

// emit appends ops to the current program as one unit.
func (s *Session) emit(ops ...ir.Instruction) error {
	p, err := s.Current()
	if err != nil {
		return err
	}
	return p.append(ops...)
}
