package pipeline

import (
	"errors"
	"fmt"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

// StageError records the stage a run failed in. The classification stays reachable through Unwrap.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Kind returns the classification of the underlying failure.
func (e *StageError) Kind() voice.Kind {
	return voice.KindOf(e.Err)
}

// StageOf returns the stage err failed in, Failed when err did not come from a run.
func StageOf(err error) State {
	var se *StageError
	if errors.As(err, &se) {
		return se.State
	}
	return Failed
}
