// Package mathops provides the illustrative sender/receiver component pair:
// a command-driven requester and a queued computation component. It exists to
// exercise the full runtime pattern — commands, async ports, parameters,
// throttled events, telemetry — end to end.
package mathops

import (
	"fmt"
)

// MathOp is the closed set of supported operations. Handlers match on it
// exhaustively; a value outside the enumeration is a fatal wiring defect at
// the computation boundary and a rejected command at the request boundary.
type MathOp int

const (
	// OpAdd computes val1 + val2.
	OpAdd MathOp = iota
	// OpSub computes val1 - val2.
	OpSub
	// OpMul computes val1 * val2.
	OpMul
	// OpDiv computes val1 / val2. Non-finite results propagate to telemetry
	// for ground diagnosis; they are not swallowed.
	OpDiv

	numOps // sentinel, keep last
)

// String returns the string representation of MathOp.
func (op MathOp) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	default:
		return fmt.Sprintf("MathOp(%d)", int(op))
	}
}

// Valid reports whether op is inside the defined enumeration.
func (op MathOp) Valid() bool {
	return op >= OpAdd && op < numOps
}

// Request carries one math operation between sender and receiver.
type Request struct {
	Val1 float64 `json:"val1"`
	Op   MathOp  `json:"op"`
	Val2 float64 `json:"val2"`
}
