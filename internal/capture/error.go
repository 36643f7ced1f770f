package capture

import "fmt"

// Stage names the pipeline phase a capture failure occurred in.
type Stage string

// Pipeline stages, in execution order.
const (
	StageLaunch     Stage = "launch"
	StageNavigate   Stage = "navigate"
	StageSettle     Stage = "settle"
	StageEvaluate   Stage = "evaluate"
	StageScroll     Stage = "scroll"
	StageScreenshot Stage = "screenshot"
	StageSave       Stage = "save"
)

// Error wraps a browser-automation failure with the stage it happened
// in. The cause stays reachable through errors.Is/As.
type Error struct {
	Stage Stage
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
