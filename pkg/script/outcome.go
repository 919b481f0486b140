package script

import "fmt"

// Phase is the step of an execution that failed.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseExecute Phase = "execute"
)

// ExecutionError is a failed compile or run of user code.
type ExecutionError struct {
	Phase   Phase
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Phase, e.Message)
}

// Outcome is the settled result of one execution: either Result or Err is set.
type Outcome struct {
	// Result is the pretty-printed JSON of the returned value, or "undefined".
	Result string
	Err    *ExecutionError
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Message renders the outcome for the response: the result on success,
// "Error: <message>" on failure.
func (o Outcome) Message() string {
	if o.Err != nil {
		return "Error: " + o.Err.Message
	}
	return o.Result
}

func success(result string) Outcome {
	return Outcome{Result: result}
}

func failure(phase Phase, message string) Outcome {
	return Outcome{Err: &ExecutionError{Phase: phase, Message: message}}
}
