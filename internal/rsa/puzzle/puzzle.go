// Package puzzle turns RSA key pairs into the encrypted enemies of the game.
//
// Each enemy carries a small plaintext encrypted under its own public key.
// The player fires keys from a key ring; a key whose public half equals the
// enemy's destroys it outright, any other key only chips its health.
package puzzle

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	apperrors "github.com/louisbranch/rsacity/internal/platform/errors"
	"github.com/louisbranch/rsacity/internal/rsa/cipher"
	"github.com/louisbranch/rsacity/internal/rsa/keygen"
)

const (
	// DefaultExponent is the public exponent preferred for puzzle keys.
	DefaultExponent int64 = 5
	// MaxMessage bounds the plaintext carried by an enemy.
	MaxMessage int64 = 100
	// ChipDamage is dealt when the wrong key hits an enemy.
	ChipDamage = 10
)

// ErrInvalidKeyRing indicates a key ring was requested with a non-positive size.
var ErrInvalidKeyRing = apperrors.New(apperrors.CodePuzzleInvalidKeyRing, "key ring must hold at least one key")

// Type identifies an enemy archetype.
type Type int

const (
	TypeUnspecified Type = iota
	TypeDrone
	TypeSoldier
	TypeBoss
)

func (t Type) String() string {
	switch t {
	case TypeDrone:
		return "drone"
	case TypeSoldier:
		return "soldier"
	case TypeBoss:
		return "boss"
	default:
		return "unspecified"
	}
}

// Profile describes the primes and toughness of an enemy archetype.
type Profile struct {
	Pair       keygen.PrimePair
	BaseHealth int
	// HealthPerLevel is added to BaseHealth once per difficulty level.
	HealthPerLevel int
}

// ProfileFor returns the profile of t. Unknown types use the drone profile.
func ProfileFor(t Type) Profile {
	switch t {
	case TypeSoldier:
		return Profile{Pair: keygen.PrimePair{P: 101, Q: 103}, BaseHealth: 100, HealthPerLevel: 20}
	case TypeBoss:
		return Profile{Pair: keygen.PrimePair{P: 1009, Q: 1013}, BaseHealth: 500, HealthPerLevel: 100}
	default:
		return Profile{Pair: keygen.PrimePair{P: 17, Q: 23}, BaseHealth: 50, HealthPerLevel: 10}
	}
}

// Presets returns the prime pairs the player's key ring cycles through.
func Presets() []keygen.PrimePair {
	return []keygen.PrimePair{
		{P: 17, Q: 23},
		{P: 19, Q: 29},
		{P: 31, Q: 37},
		{P: 41, Q: 43},
		{P: 101, Q: 103},
	}
}

// ExponentFor picks the public exponent used for pair: DefaultExponent when
// it is coprime to φ(n), otherwise the first common exponent that is.
func ExponentFor(pair keygen.PrimePair) (int64, error) {
	candidates := []int64{DefaultExponent}
	for _, preset := range keygen.CommonExponents() {
		if preset.Value != DefaultExponent {
			candidates = append(candidates, preset.Value)
		}
	}

	var lastErr error
	for _, e := range candidates {
		_, err := keygen.Generate(pair, e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, keygen.ErrInvalidExponent) {
			return 0, err
		}
		lastErr = err
	}
	return 0, apperrors.Wrap(
		apperrors.CodeKeyInvalidExponent,
		fmt.Sprintf("no common exponent is coprime to φ(n) for p = %d, q = %d", pair.P, pair.Q),
		lastErr,
	)
}

// Key is one selectable weapon key.
type Key struct {
	ID     string
	Pair   keygen.PrimePair
	Public keygen.PublicKey
}

// NewKeyRing builds count keys, cycling through Presets.
func NewKeyRing(count int) ([]Key, error) {
	if count < 1 {
		return nil, apperrors.WithMetadata(
			apperrors.CodePuzzleInvalidKeyRing,
			fmt.Sprintf("key ring must hold at least one key, got %d", count),
			map[string]string{"count": strconv.Itoa(count)},
		)
	}

	presets := Presets()
	keys := make([]Key, 0, count)
	for i := 0; i < count; i++ {
		pair := presets[i%len(presets)]
		public, _, err := derive(pair, 0)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, Key{ID: "key-" + strconv.Itoa(i), Pair: pair, Public: public})
	}
	return keys, nil
}

// MintRequest describes the enemy to mint.
type MintRequest struct {
	Seed int64
	Type Type
	// Difficulty scales health; negative values count as zero.
	Difficulty int
	// Pair overrides the profile primes when non-zero.
	Pair keygen.PrimePair
	// Exponent overrides ExponentFor when non-zero.
	Exponent int64
}

// Puzzle is one encrypted enemy.
type Puzzle struct {
	Type       Type
	Pair       keygen.PrimePair
	Public     keygen.PublicKey
	Ciphertext int64
	Health     int
	MaxHealth  int

	message int64
	private keygen.PrivateKey
}

// Hit reports the outcome of firing a key at a puzzle.
type Hit struct {
	Correct   bool
	Damage    int
	Destroyed bool
}

// Mint generates a puzzle. The plaintext is drawn from a math/rand source
// seeded with req.Seed, so equal requests mint equal puzzles.
func Mint(req MintRequest) (*Puzzle, error) {
	if req.Type == TypeUnspecified {
		req.Type = TypeDrone
	}
	profile := ProfileFor(req.Type)
	if req.Pair == (keygen.PrimePair{}) {
		req.Pair = profile.Pair
	}
	difficulty := max(req.Difficulty, 0)

	public, private, err := derive(req.Pair, req.Exponent)
	if err != nil {
		return nil, err
	}

	limit := min(MaxMessage, public.N-1)
	rng := rand.New(rand.NewSource(req.Seed))
	message := rng.Int63n(limit) + 1

	encrypted, err := cipher.Encrypt(message, public)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	health := profile.BaseHealth + difficulty*profile.HealthPerLevel
	return &Puzzle{
		Type:       req.Type,
		Pair:       req.Pair,
		Public:     public,
		Ciphertext: encrypted.Ciphertext,
		Health:     health,
		MaxHealth:  health,
		message:    message,
		private:    private,
	}, nil
}

// Resolve fires selected at the puzzle. A matching public key deals the
// remaining health; any other key deals ChipDamage. Hits on a destroyed
// puzzle deal nothing.
func (p *Puzzle) Resolve(selected keygen.PublicKey) Hit {
	if p.Destroyed() {
		return Hit{Correct: selected == p.Public, Destroyed: true}
	}

	hit := Hit{Correct: selected == p.Public}
	if hit.Correct {
		hit.Damage = p.Health
	} else {
		hit.Damage = min(ChipDamage, p.Health)
	}
	p.Health -= hit.Damage
	hit.Destroyed = p.Destroyed()
	return hit
}

// Destroyed reports whether the puzzle has no health left.
func (p *Puzzle) Destroyed() bool {
	return p.Health <= 0
}

// Message returns the plaintext the puzzle was minted with.
func (p *Puzzle) Message() int64 {
	return p.message
}

// Reveal decrypts the ciphertext with the puzzle's private key.
func (p *Puzzle) Reveal() cipher.Decryption {
	return cipher.Decrypt(p.Ciphertext, p.private)
}

// Wave returns the enemy types spawned in wave, in spawn order. A wave holds
// 3 + wave enemies; from wave 4 the last two are soldiers, and every fifth
// wave ends with a boss.
func Wave(wave int) []Type {
	count := 3 + max(wave, 0)
	types := make([]Type, count)
	for i := range types {
		types[i] = TypeDrone
		if wave > 3 && i >= count-2 {
			types[i] = TypeSoldier
		}
		if wave > 0 && wave%5 == 0 && i == count-1 {
			types[i] = TypeBoss
		}
	}
	return types
}

// MintWave mints every enemy of wave. Each enemy draws its own seed from a
// source seeded with seed, and its difficulty is the wave number.
func MintWave(seed int64, wave int) ([]*Puzzle, error) {
	rng := rand.New(rand.NewSource(seed))
	types := Wave(wave)
	puzzles := make([]*Puzzle, 0, len(types))
	for i, typ := range types {
		p, err := Mint(MintRequest{Seed: rng.Int63(), Type: typ, Difficulty: wave})
		if err != nil {
			return nil, fmt.Errorf("enemy %d (%s): %w", i+1, typ, err)
		}
		puzzles = append(puzzles, p)
	}
	return puzzles, nil
}

func derive(pair keygen.PrimePair, e int64) (keygen.PublicKey, keygen.PrivateKey, error) {
	if e == 0 {
		chosen, err := ExponentFor(pair)
		if err != nil {
			return keygen.PublicKey{}, keygen.PrivateKey{}, err
		}
		e = chosen
	}
	keys, err := keygen.Generate(pair, e)
	if err != nil {
		return keygen.PublicKey{}, keygen.PrivateKey{}, err
	}
	return keys.Public, keys.Private, nil
}
