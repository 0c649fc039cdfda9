package scoring

import (
	"fmt"
	"time"
)

// ExecutionStatus is the phase of a lab execution at a point in time.
type ExecutionStatus int

const (
	StatusUndefined ExecutionStatus = iota
	StatusBeforePreStart
	StatusPreStart
	StatusStart
	StatusEnd
)

var statusNames = map[ExecutionStatus]string{
	StatusUndefined:      "undefined",
	StatusBeforePreStart: "before_prestart",
	StatusPreStart:       "prestart",
	StatusStart:          "start",
	StatusEnd:            "end",
}

func (s ExecutionStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ExecutionStatus(%d)", int(s))
}

func (s ExecutionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ExecutionStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown execution status %q", text)
}

// StatusAt derives the phase from the window boundaries. Without a PreStart
// the pre-start phase is empty and the status goes straight from
// before_prestart to start.
func StatusAt(w *Window, now time.Time) ExecutionStatus {
	if w == nil {
		return StatusUndefined
	}

	preStart := w.Start
	if w.PreStart != nil {
		preStart = *w.PreStart
	}

	switch {
	case now.Before(preStart):
		return StatusBeforePreStart
	case now.Before(w.Start):
		return StatusPreStart
	case now.Before(w.End):
		return StatusStart
	default:
		return StatusEnd
	}
}
