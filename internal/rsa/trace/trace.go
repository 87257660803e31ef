// Package trace records the intermediate states of the RSA algorithms so a
// visualizer can replay them step by step.
//
// A Trace is produced once per computation and never mutated afterwards.
// Iterating it does not consume it: All, Steps, and At can be called any
// number of times and always observe the same ordered sequence.
package trace

import (
	"iter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind tags a step record with the algorithm phase that produced it.
type Kind int

const (
	KindUnspecified Kind = iota
	KindBinaryConversion
	KindInitialize
	KindSquare
	KindMultiply
	KindDivision
	KindBezout
)

func (k Kind) String() string {
	switch k {
	case KindBinaryConversion:
		return "binary"
	case KindInitialize:
		return "initialize"
	case KindSquare:
		return "square"
	case KindMultiply:
		return "multiply"
	case KindDivision:
		return "division"
	case KindBezout:
		return "bezout"
	default:
		return "unspecified"
	}
}

// Step is one recorded algorithm state. The concrete types are
// BinaryConversion, Initialize, Square, Multiply, Division, and Bezout.
type Step interface {
	Kind() Kind
	// Description renders the step as a sentence for on-screen playback.
	Description() string

	describe(p *message.Printer) string
}

// printer groups digits the way the visualizer displays numbers.
var printer = message.NewPrinter(language.English)

// BinaryConversion records the exponent being expanded into bits before
// square-and-multiply starts.
type BinaryConversion struct {
	Exponent uint64
	Binary   string
}

// Initialize records the leading exponent bit seeding the accumulator.
type Initialize struct {
	Value   int64
	Modulus int64
}

// Square records result = result² mod modulus for one exponent bit.
type Square struct {
	OldValue int64
	NewValue int64
	Modulus  int64
	Bit      uint8
}

// Multiply records result = result × base mod modulus for a 1 bit.
type Multiply struct {
	OldValue int64
	Base     int64
	NewValue int64
	Modulus  int64
	Bit      uint8
}

// Division records one iteration of the Euclidean algorithm:
// Dividend = Divisor × Quotient + Remainder.
type Division struct {
	Dividend  int64
	Divisor   int64
	Quotient  int64
	Remainder int64
}

// Bezout records the state of the extended Euclidean algorithm before the
// three rotating pairs are updated with Quotient.
type Bezout struct {
	OldR     int64
	R        int64
	OldS     int64
	S        int64
	OldT     int64
	T        int64
	Quotient int64
}

func (BinaryConversion) Kind() Kind { return KindBinaryConversion }
func (Initialize) Kind() Kind       { return KindInitialize }
func (Square) Kind() Kind           { return KindSquare }
func (Multiply) Kind() Kind         { return KindMultiply }
func (Division) Kind() Kind         { return KindDivision }
func (Bezout) Kind() Kind           { return KindBezout }

func (s BinaryConversion) Description() string { return s.describe(printer) }
func (s Initialize) Description() string       { return s.describe(printer) }
func (s Square) Description() string           { return s.describe(printer) }
func (s Multiply) Description() string         { return s.describe(printer) }
func (s Division) Description() string         { return s.describe(printer) }
func (s Bezout) Description() string           { return s.describe(printer) }

func (s BinaryConversion) describe(p *message.Printer) string {
	return p.Sprintf("Convert exponent %d to binary: %s", s.Exponent, s.Binary)
}

func (s Initialize) describe(p *message.Printer) string {
	return p.Sprintf("Initialize result = %d", s.Value)
}

func (s Square) describe(p *message.Printer) string {
	return p.Sprintf("Square: %d² mod %d = %d", s.OldValue, s.Modulus, s.NewValue)
}

func (s Multiply) describe(p *message.Printer) string {
	return p.Sprintf("Bit is 1, multiply: %d × %d mod %d = %d", s.OldValue, s.Base, s.Modulus, s.NewValue)
}

func (s Division) describe(p *message.Printer) string {
	return p.Sprintf("%d = %d × %d + %d", s.Dividend, s.Divisor, s.Quotient, s.Remainder)
}

func (s Bezout) describe(p *message.Printer) string {
	return p.Sprintf("q = %d: r (%d, %d), s (%d, %d), t (%d, %d)", s.Quotient, s.OldR, s.R, s.OldS, s.S, s.OldT, s.T)
}

// Trace is an immutable, ordered, finite sequence of steps.
// The zero value is an empty trace.
type Trace struct {
	steps []Step
}

// New builds a trace from steps. The slice is copied.
func New(steps ...Step) Trace {
	if len(steps) == 0 {
		return Trace{}
	}
	return Trace{steps: append([]Step(nil), steps...)}
}

// Len returns the number of recorded steps.
func (t Trace) Len() int {
	return len(t.steps)
}

// At returns the step at index i. It panics when i is out of range, like a
// slice index.
func (t Trace) At(i int) Step {
	return t.steps[i]
}

// Steps returns a copy of the recorded steps.
func (t Trace) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// All iterates the steps in order. Each call starts from the first step.
func (t Trace) All() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for i, step := range t.steps {
			if !yield(i, step) {
				return
			}
		}
	}
}

// Count returns how many steps of the given kind were recorded.
func (t Trace) Count(kind Kind) int {
	count := 0
	for _, step := range t.steps {
		if step.Kind() == kind {
			count++
		}
	}
	return count
}

// Descriptions renders every step in order.
func (t Trace) Descriptions() []string {
	out := make([]string, 0, len(t.steps))
	for _, step := range t.steps {
		out = append(out, step.describe(printer))
	}
	return out
}

// Recorder accumulates steps while an algorithm runs. It is owned by a
// single computation and handed out as a Trace once the loop finishes.
type Recorder struct {
	steps []Step
}

// Record appends a step.
func (r *Recorder) Record(step Step) {
	r.steps = append(r.steps, step)
}

// Trace snapshots the recorded steps. Later Record calls do not affect the
// returned value.
func (r *Recorder) Trace() Trace {
	return New(r.steps...)
}
