package lesson

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/rsacity/internal/rsa/keygen"
)

const (
	instrumentationName = "github.com/louisbranch/rsacity/internal/tools/lesson"
	defaultTimeout      = 5 * time.Second
)

// Config controls lesson execution.
type Config struct {
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    defaultTimeout,
		Assertions: AssertionStrict,
	}
}

// Runner executes lessons against the RSA engine in-process.
type Runner struct {
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	tracer     trace.Tracer
}

// NewRunner prepares a lesson runner. A nil logger writes to stderr and a
// zero timeout uses the default.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	provider := cfg.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Runner{
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		tracer:     provider.Tracer(instrumentationName),
	}
}

// RunFile loads the lesson named by ref and executes it. See Load for the
// accepted references.
func RunFile(ctx context.Context, cfg Config, ref string) error {
	lesson, err := Load(ref)
	if err != nil {
		return err
	}
	return NewRunner(cfg).RunLesson(ctx, lesson)
}

// lessonState carries key material between the steps of one lesson.
type lessonState struct {
	generator     *keygen.Generator
	public        keygen.PublicKey
	private       keygen.PrivateKey
	hasPublic     bool
	hasPrivate    bool
	ciphertext    int64
	hasCiphertext bool
}

// RunLesson executes the lesson steps in order. Each step runs under its own
// timeout and span.
func (r *Runner) RunLesson(ctx context.Context, lesson *Lesson) error {
	if lesson == nil {
		return errors.New("lesson is required")
	}

	ctx, span := r.tracer.Start(ctx, "lesson.run", trace.WithAttributes(
		attribute.String("lesson.name", lesson.Name),
		attribute.Int("lesson.steps", len(lesson.Steps)),
	))
	defer span.End()

	if sc := span.SpanContext(); sc.IsValid() {
		r.logf("lesson start: %s (%d steps, trace %s)", lesson.Name, len(lesson.Steps), sc.TraceID())
	} else {
		r.logf("lesson start: %s (%d steps)", lesson.Name, len(lesson.Steps))
	}

	state := &lessonState{}
	for index, step := range lesson.Steps {
		stepNumber := index + 1
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}

		r.logf("step %d/%d start: %s", stepNumber, len(lesson.Steps), step.Kind)
		stepStart := time.Now()
		if err := r.runTracedStep(ctx, state, index, step); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(lesson.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("lesson done: %s", lesson.Name)
	return nil
}

func (r *Runner) runTracedStep(ctx context.Context, state *lessonState, index int, step Step) error {
	stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stepCtx, span := r.tracer.Start(stepCtx, "lesson.step."+step.Kind, trace.WithAttributes(
		attribute.Int("lesson.step.index", index),
		attribute.String("lesson.step.kind", step.Kind),
	))
	defer span.End()

	err := r.runStep(stepCtx, state, step)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
