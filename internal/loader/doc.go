// Package loader reads circuit files and replays them through a
// circuit.Session.
//
// Two formats share one schema: YAML (.yaml, .yml) and CUE (.cue). CUE
// files are unified with the embedded #Circuit definition, exported to
// JSON and then decoded exactly like YAML, so both formats accept the same
// documents:
//
//	width: 3
//	blocks:
//	  oracle:
//	    params: [x0, x1, a]
//	    ops:
//	      - {gate: CNOT, pairs: [[$x0, $a], [$x1, $a]]}
//	ops:
//	  - {gate: X, wires: [2]}
//	  - {gate: SUPERPOSE, wires: [0, 1, 2]}
//	  - {use: oracle, args: {x0: 0, x1: 1, a: 2}}
//	  - {gate: SUPERPOSE, wires: [0, 1]}
//	  - {measure: probs, wires: [0, 1]}
//
// Strings starting with "$" refer to block parameters.
package loader
