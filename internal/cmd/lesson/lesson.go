// Package lesson parses lesson command flags and runs Lua lessons.
package lesson

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	entrypoint "github.com/louisbranch/rsacity/internal/platform/cmd"
	"github.com/louisbranch/rsacity/internal/tools/lesson"
)

// Config holds lesson command configuration.
type Config struct {
	Lesson     string        `env:"RSACITY_LESSON_FILE"`
	Assertions bool          `env:"RSACITY_LESSON_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"RSACITY_LESSON_VERBOSE"`
	Timeout    time.Duration `env:"RSACITY_LESSON_TIMEOUT" envDefault:"5s"`
	List       bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Lesson, "lesson", cfg.Lesson, "path to lesson lua file, or builtin:<name>")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every step and its trace")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.BoolVar(&cfg.List, "list", cfg.List, "list builtin lessons and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the lesson command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	if cfg.List {
		names, err := lesson.Builtins()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, lesson.BuiltinPrefix+name)
		}
		return nil
	}
	if cfg.Lesson == "" {
		return errors.New("lesson path is required")
	}

	mode := lesson.AssertionStrict
	if !cfg.Assertions {
		mode = lesson.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLesson, func(ctx context.Context) error {
		if err := lesson.RunFile(ctx, lesson.Config{
			Timeout:    cfg.Timeout,
			Assertions: mode,
			Verbose:    cfg.Verbose,
			Logger:     logger,
		}, cfg.Lesson); err != nil {
			return err
		}
		fmt.Fprintf(out, "lesson %s passed\n", cfg.Lesson)
		return nil
	})
}
