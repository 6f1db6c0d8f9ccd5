package shell

import "errors"

var (
	ErrPluginRegistered = errors.New("plugin already registered")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidArgs      = errors.New("invalid command arguments")
)

const (
	StageContext  = "context"
	StageRegistry = "registry"
	StageRuntime  = "runtime"
	StageRun      = "run"
)

// StartupError is the single failure surfaced by the bootstrap. Its message
// is the underlying error's message alone; Stage is for logs.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	if e == nil || e.Err == nil {
		return "<nil>"
	}
	return e.Err.Error()
}

func (e *StartupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func PluginStage(name string) string {
	return "plugin:" + name
}

func startupError(stage string, err error) error {
	var se *StartupError
	if errors.As(err, &se) {
		return err
	}
	return &StartupError{Stage: stage, Err: err}
}
