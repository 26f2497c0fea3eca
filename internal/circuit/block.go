package circuit

import (
	"fmt"

	"github.com/roach88/qdsl/internal/ir"
)

// Block is a named, reusable builder. It appends to whatever program is
// current when it is used, with the caller's wire indices passed in args.
type Block func(s *Session, args Args) error

// Args are the named arguments of a block invocation.
type Args map[string]any

// Int returns an integer argument.
func (a Args) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, ir.Errorf(ir.ErrCodeValidation, "block", "missing argument %q", name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, ir.Errorf(ir.ErrCodeValidation, "block", "argument %q must be an integer, got %v", name, v)
}

// Float returns a numeric argument.
func (a Args) Float(name string) (float64, error) {
	v, ok := a[name]
	if !ok {
		return 0, ir.Errorf(ir.ErrCodeValidation, "block", "missing argument %q", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, ir.Errorf(ir.ErrCodeValidation, "block", "argument %q must be a number, got %v", name, v)
}

// String returns a string argument, typically the name of another block.
func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", ir.Errorf(ir.ErrCodeValidation, "block", "missing argument %q", name)
	}
	str, ok := v.(string)
	if !ok {
		return "", ir.Errorf(ir.ErrCodeValidation, "block", "argument %q must be a string, got %v", name, v)
	}
	return str, nil
}

// Block registers fn under name. The first registration wins: a duplicate
// is logged and returned as a DUPLICATE_BLOCK error, and the original stays
// in place. Callers that treat redefinition as benign can ignore it with
// ir.IsDuplicateBlock.
func (s *Session) Block(name string, fn Block) error {
	if fn == nil {
		return ir.Errorf(ir.ErrCodeValidation, "block", "block %q has no builder", name)
	}
	err := s.registry.Register(name, fn)
	if ir.IsDuplicateBlock(err) {
		s.logger.Warn("block already defined; keeping the first definition", "block", name)
	}
	return err
}

// MaxBlockDepth bounds how deeply blocks may use other blocks. A block
// that reaches itself through a parameter-named use fails at this depth
// with a STRUCTURAL error instead of exhausting the stack.
const MaxBlockDepth = 64

// Use runs the named block against the current program. If the block
// fails, everything it appended is removed again.
func (s *Session) Use(name string, args Args) error {
	fn, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}
	p, err := s.Current()
	if err != nil {
		return err
	}
	if s.blockDepth >= MaxBlockDepth {
		return ir.Errorf(ir.ErrCodeStructural, "use",
			"block %q nested more than %d levels deep; blocks may not recurse", name, MaxBlockDepth)
	}

	s.blockDepth++
	defer func() { s.blockDepth-- }()

	mark := p.Len()
	if err := fn(s, args); err != nil {
		p.truncate(mark)
		return fmt.Errorf("block %q: %w", name, err)
	}
	return nil
}
