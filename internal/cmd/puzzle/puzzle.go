// Package puzzle parses puzzle command flags and prints a minted wave.
package puzzle

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	entrypoint "github.com/louisbranch/rsacity/internal/platform/cmd"
	"github.com/louisbranch/rsacity/internal/random"
	"github.com/louisbranch/rsacity/internal/rsa/puzzle"
)

// Config holds puzzle command configuration.
type Config struct {
	Wave   int   `env:"RSACITY_PUZZLE_WAVE" envDefault:"1"`
	Seed   int64 `env:"RSACITY_PUZZLE_SEED"`
	Keys   int   `env:"RSACITY_PUZZLE_KEYS" envDefault:"3"`
	Reveal bool  `env:"RSACITY_PUZZLE_REVEAL"`
	Solve  bool  `env:"RSACITY_PUZZLE_SOLVE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Wave, "wave", cfg.Wave, "wave number")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for reproducibility (0 = random)")
	fs.IntVar(&cfg.Keys, "keys", cfg.Keys, "number of keys in the key ring")
	fs.BoolVar(&cfg.Reveal, "reveal", cfg.Reveal, "print each enemy's plaintext")
	fs.BoolVar(&cfg.Solve, "solve", cfg.Solve, "fire the key ring at each enemy until it falls")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run mints the configured wave and writes it to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePuzzle, func(ctx context.Context) error {
		return run(ctx, cfg, out, random.SeedOrNew)
	})
}

func run(ctx context.Context, cfg Config, out io.Writer, seedFunc func(int64) (int64, error)) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Wave < 1 {
		return errors.New("wave must be at least 1")
	}

	seed, err := seedFunc(cfg.Seed)
	if err != nil {
		return err
	}
	keys, err := puzzle.NewKeyRing(cfg.Keys)
	if err != nil {
		return err
	}
	enemies, err := puzzle.MintWave(seed, cfg.Wave)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "wave %d (seed %d)\n\n", cfg.Wave, seed)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tP\tQ\tE\tN")
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", key.ID, key.Pair.P, key.Pair.Q, key.Public.E, key.Public.N)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "ENEMY\tTYPE\tHEALTH\tE\tN\tCIPHERTEXT"
	if cfg.Reveal {
		header += "\tMESSAGE"
	}
	fmt.Fprintln(w, header)
	for i, enemy := range enemies {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d", i+1, enemy.Type, enemy.MaxHealth, enemy.Public.E, enemy.Public.N, enemy.Ciphertext)
		if cfg.Reveal {
			fmt.Fprintf(w, "\t%d", enemy.Reveal().Message)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !cfg.Solve {
		return nil
	}
	fmt.Fprintln(out)
	for i, enemy := range enemies {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "enemy %d: %s\n", i+1, solve(enemy, keys))
	}
	return nil
}

// solve fires the ring in order, repeating it, until the enemy falls or a
// full pass deals no damage.
func solve(enemy *puzzle.Puzzle, keys []puzzle.Key) string {
	shots := 0
	for !enemy.Destroyed() {
		dealt := 0
		for _, key := range keys {
			hit := enemy.Resolve(key.Public)
			shots++
			dealt += hit.Damage
			if hit.Destroyed {
				verdict := "worn down"
				if hit.Correct {
					verdict = "decrypted with " + key.ID
				}
				return fmt.Sprintf("%s after %d shots", verdict, shots)
			}
		}
		if dealt == 0 {
			break
		}
	}
	return fmt.Sprintf("still standing after %d shots", shots)
}
