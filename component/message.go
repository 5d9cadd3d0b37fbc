package component

import (
	"github.com/c360/activekit/pkg/timestamp"
)

// Kind is the closed set of message variants the dispatch loop routes on.
// Unknown kinds are an explicit fatal error, never a silent fallthrough.
type Kind int

const (
	// KindPortInvocation routes to a registered asynchronous port handler.
	KindPortInvocation Kind = iota
	// KindCommand routes to the command dispatcher.
	KindCommand
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindPortInvocation:
		return "port"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Message is one queued invocation. It is immutable once enqueued: the queue
// owns it exclusively until dequeued, then the dispatch loop owns it for the
// duration of handler execution, after which it is discarded.
type Message struct {
	Kind Kind

	// Port names the target async input for KindPortInvocation.
	Port string

	// Opcode and Seq identify the command for KindCommand.
	Opcode Opcode
	Seq    uint32

	// Payload is the invocation argument. Its concrete type is checked
	// against the port's declared type at dispatch; a mismatch is a fatal
	// wiring defect.
	Payload any

	// Enqueued is Unix milliseconds at enqueue time.
	Enqueued int64
}

func portMessage(port string, payload any) Message {
	return Message{
		Kind:     KindPortInvocation,
		Port:     port,
		Payload:  payload,
		Enqueued: timestamp.Now(),
	}
}

func commandMessage(opcode Opcode, seq uint32, payload any) Message {
	return Message{
		Kind:     KindCommand,
		Opcode:   opcode,
		Seq:      seq,
		Payload:  payload,
		Enqueued: timestamp.Now(),
	}
}
