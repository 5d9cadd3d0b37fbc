package component

import (
	"fmt"
	"log/slog"

	"github.com/c360/activekit/errors"
)

// Opcode identifies a command kind.
type Opcode uint32

// Status is the completion status carried by a command response.
type Status int

const (
	// StatusOK means the handler ran to completion.
	StatusOK Status = iota
	// StatusInvalidOpcode means no handler is registered for the opcode.
	StatusInvalidOpcode
	// StatusExecutionError means the handler ran and reported a failure.
	StatusExecutionError
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidOpcode:
		return "INVALID_OPCODE"
	case StatusExecutionError:
		return "EXECUTION_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Response is the acknowledged completion of one command. Exactly one
// response is produced per dispatched command, and Seq always echoes the
// caller's sequence number so request and response pair 1:1.
type Response struct {
	Opcode Opcode `json:"opcode"`
	Seq    uint32 `json:"seq"`
	Status Status `json:"status"`
}

// CommandHandler executes one command invocation. The handler runs to
// completion before the response is emitted; commands are never acknowledged
// before their side effects are applied. A returned error becomes
// StatusExecutionError unless it is classified fatal, in which case it
// escalates out of the dispatch loop.
type CommandHandler func(seq uint32, payload any) error

// CommandDispatcher maps opcodes to handlers. Registration happens at
// component construction; dispatch happens only on the owning component's
// dispatch goroutine, so the table needs no locking after assembly.
type CommandDispatcher struct {
	component string
	handlers  map[Opcode]CommandHandler
	logger    *slog.Logger
}

// NewCommandDispatcher creates an empty dispatcher for the named component.
func NewCommandDispatcher(component string, logger *slog.Logger) *CommandDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandDispatcher{
		component: component,
		handlers:  make(map[Opcode]CommandHandler),
		logger:    logger,
	}
}

// Register installs a handler for an opcode. Registering the same opcode
// twice is a configuration error.
func (d *CommandDispatcher) Register(opcode Opcode, handler CommandHandler) error {
	if handler == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "CommandDispatcher", "Register", "nil handler")
	}
	if _, exists := d.handlers[opcode]; exists {
		return errors.WrapInvalid(errors.ErrDuplicateOpcode, "CommandDispatcher", "Register",
			fmt.Sprintf("opcode 0x%X", uint32(opcode)))
	}
	d.handlers[opcode] = handler
	return nil
}

// Dispatch looks up and runs the handler for opcode, producing exactly one
// response. Unknown opcodes are a recoverable operational failure: the
// response carries StatusInvalidOpcode with the sequence number still echoed.
// The second return value carries a fatal handler error that must escalate;
// it is nil for OK and for recoverable failures.
func (d *CommandDispatcher) Dispatch(opcode Opcode, seq uint32, payload any) (Response, error) {
	handler, exists := d.handlers[opcode]
	if !exists {
		d.logger.Warn("command with unregistered opcode",
			"component", d.component,
			"opcode", fmt.Sprintf("0x%X", uint32(opcode)),
			"seq", seq)
		return Response{Opcode: opcode, Seq: seq, Status: StatusInvalidOpcode}, nil
	}

	if err := handler(seq, payload); err != nil {
		if errors.IsFatal(err) {
			return Response{Opcode: opcode, Seq: seq, Status: StatusExecutionError}, err
		}
		d.logger.Warn("command handler failed",
			"component", d.component,
			"opcode", fmt.Sprintf("0x%X", uint32(opcode)),
			"seq", seq,
			"error", err)
		return Response{Opcode: opcode, Seq: seq, Status: StatusExecutionError}, nil
	}

	return Response{Opcode: opcode, Seq: seq, Status: StatusOK}, nil
}

// Opcodes returns the registered opcodes, for introspection.
func (d *CommandDispatcher) Opcodes() []Opcode {
	ops := make([]Opcode, 0, len(d.handlers))
	for op := range d.handlers {
		ops = append(ops, op)
	}
	return ops
}
