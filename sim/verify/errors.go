package verify

import (
	"fmt"

	"github.com/krpsim/krpsim/sim"
)

// Code classifies a trace violation.
type Code int

// Violation codes, stable across releases.
const (
	CyclesNotInOrder Code = iota
	NegativeStock
	UndefinedProcess
	ExecutionOrder
	ConstraintsUnsatisfied
	NegativeCycle
	DelayCondition
	CycleRegression
	DependencyNotSatisfied
	EmptyTrace
	MalformedLine
)

var codeMessages = map[Code]string{
	CyclesNotInOrder:       "cycles are not in order",
	NegativeStock:          "stock would go negative",
	UndefinedProcess:       "process is not defined",
	ExecutionOrder:         "out of order process execution",
	ConstraintsUnsatisfied: "executed processes do not match defined processes",
	NegativeCycle:          "negative cycle value",
	DelayCondition:         "process violates the delay condition",
	CycleRegression:        "cycle is lower than a previous line",
	DependencyNotSatisfied: "dependencies not satisfied",
	EmptyTrace:             "trace is empty",
	MalformedLine:          "malformed trace line",
}

func (c Code) String() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("unknown violation %d", int(c))
}

// Error is the first violation found in a trace. Verification stops there.
type Error struct {
	Code    Code
	Line    int    // 1-based trace line, 0 when not tied to a line
	Cycle   int64  // cycle of the offending line (or the last good cycle)
	Process string // offending process, if any
	Detail  string
	Stock   sim.Stock // verifier stock when the violation was detected
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("Error at cycle %d: %s", e.Cycle, e.Code)
	if e.Process != "" {
		msg += fmt.Sprintf(" (%s)", e.Process)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches another *Error by code, so errors.Is(err, &Error{Code: X}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
