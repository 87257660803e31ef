package lesson

import (
	"fmt"
	"log"
)

// AssertionMode controls how failed expectations are handled.
type AssertionMode int

const (
	// AssertionStrict fails the lesson on the first unmet expectation.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs unmet expectations and keeps going.
	AssertionLogOnly
)

func (m AssertionMode) String() string {
	switch m {
	case AssertionStrict:
		return "strict"
	case AssertionLogOnly:
		return "log-only"
	default:
		return "unknown"
	}
}

// Assertions reports unmet expectations according to Mode.
type Assertions struct {
	Mode   AssertionMode
	Logger *log.Logger
}

// Failf always returns an error. It is used for malformed steps, which no
// mode can skip.
func (a Assertions) Failf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Assertf returns an error in strict mode and logs it otherwise.
func (a Assertions) Assertf(format string, args ...any) error {
	if a.Mode == AssertionStrict {
		return fmt.Errorf(format, args...)
	}
	if a.Logger != nil {
		a.Logger.Printf("expectation: "+format, args...)
	}
	return nil
}
