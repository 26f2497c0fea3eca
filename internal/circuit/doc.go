// Package circuit is the program-building surface of qdsl.
//
// A Session owns the stack of programs under construction and the block
// registry. Builder calls (H, CNOT, Measure, Use, ...) validate their
// arguments and append to the innermost open program:
//
//	s := circuit.NewSession()
//	p, _ := s.Prepare(2)
//	err := s.Within(p, func() error {
//		if err := s.BellPhiPlus(0, 1); err != nil {
//			return err
//		}
//		return s.MeasureState()
//	})
//	res, err := p.Invoke(ctx)
//
// A Session is not safe for concurrent use. Registries may be shared
// between sessions via WithRegistry.
package circuit
