package pipeline

// State 管线所处的阶段，严格按声明顺序推进，任一阶段失败进入 Failed。
type State int

const (
	Validating State = iota
	Normalizing
	Transcribing
	Composing
	Generating
	Synthesizing
	Assembling
	Done
	Failed
)

var stateNames = [...]string{
	Validating:   "validating",
	Normalizing:  "normalizing",
	Transcribing: "transcribing",
	Composing:    "composing",
	Generating:   "generating",
	Synthesizing: "synthesizing",
	Assembling:   "assembling",
	Done:         "done",
	Failed:       "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
