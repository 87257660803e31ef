package puzzle

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/louisbranch/rsacity/internal/rsa/cipher"
	"github.com/louisbranch/rsacity/internal/rsa/keygen"
)

func TestExponentFor(t *testing.T) {
	tcs := []struct {
		pair keygen.PrimePair
		want int64
	}{
		{keygen.PrimePair{P: 17, Q: 23}, 5},
		{keygen.PrimePair{P: 19, Q: 29}, 5},
		{keygen.PrimePair{P: 31, Q: 37}, 17},
		{keygen.PrimePair{P: 41, Q: 43}, 17},
		{keygen.PrimePair{P: 101, Q: 103}, 257},
		{keygen.PrimePair{P: 1009, Q: 1013}, 5},
	}
	for _, tc := range tcs {
		got, err := ExponentFor(tc.pair)
		if err != nil {
			t.Fatalf("ExponentFor(%+v) returned error: %v", tc.pair, err)
		}
		if got != tc.want {
			t.Fatalf("ExponentFor(%+v) = %d, want %d", tc.pair, got, tc.want)
		}
	}
}

func TestExponentForRejectsInvalidPrimes(t *testing.T) {
	_, err := ExponentFor(keygen.PrimePair{P: 15, Q: 23})
	if !errors.Is(err, keygen.ErrInvalidPrime) {
		t.Fatalf("ExponentFor error = %v, want %v", err, keygen.ErrInvalidPrime)
	}
}

func TestExponentForExhaustsCandidates(t *testing.T) {
	// φ(2·3) = 2 leaves no room for any exponent.
	_, err := ExponentFor(keygen.PrimePair{P: 2, Q: 3})
	if !errors.Is(err, keygen.ErrInvalidExponent) {
		t.Fatalf("ExponentFor error = %v, want %v", err, keygen.ErrInvalidExponent)
	}
	if !strings.Contains(err.Error(), "no common exponent") {
		t.Fatalf("unexpected reason %q", err.Error())
	}
}

func TestNewKeyRingCyclesPresets(t *testing.T) {
	keys, err := NewKeyRing(7)
	if err != nil {
		t.Fatalf("NewKeyRing returned error: %v", err)
	}
	if len(keys) != 7 {
		t.Fatalf("expected 7 keys, got %d", len(keys))
	}
	presets := Presets()
	for i, key := range keys {
		if key.ID != "key-"+strconv.Itoa(i) {
			t.Fatalf("key %d has id %q", i, key.ID)
		}
		want := presets[i%len(presets)]
		if key.Pair != want {
			t.Fatalf("key %d pair = %+v, want %+v", i, key.Pair, want)
		}
		if key.Public.N != want.P*want.Q {
			t.Fatalf("key %d modulus = %d, want %d", i, key.Public.N, want.P*want.Q)
		}
	}
	if keys[0].Public != keys[5].Public {
		t.Fatalf("expected cycled keys to share a public key")
	}
	if keys[0].Public != (keygen.PublicKey{E: 5, N: 391}) {
		t.Fatalf("unexpected first key: %+v", keys[0].Public)
	}
}

func TestNewKeyRingRejectsEmpty(t *testing.T) {
	for _, count := range []int{0, -1} {
		if _, err := NewKeyRing(count); !errors.Is(err, ErrInvalidKeyRing) {
			t.Fatalf("NewKeyRing(%d) error = %v, want %v", count, err, ErrInvalidKeyRing)
		}
	}
}

func TestMintIsDeterministic(t *testing.T) {
	req := MintRequest{Seed: 42, Type: TypeDrone, Difficulty: 1}
	first, err := Mint(req)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	second, err := Mint(req)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	if first.Message() != second.Message() || first.Ciphertext != second.Ciphertext {
		t.Fatalf("expected equal puzzles, got %d/%d and %d/%d",
			first.Message(), first.Ciphertext, second.Message(), second.Ciphertext)
	}
}

func TestMintDefaults(t *testing.T) {
	puzzle, err := Mint(MintRequest{Seed: 7})
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	if puzzle.Type != TypeDrone {
		t.Fatalf("expected drone, got %s", puzzle.Type)
	}
	if puzzle.Pair != (keygen.PrimePair{P: 17, Q: 23}) {
		t.Fatalf("unexpected pair %+v", puzzle.Pair)
	}
	if puzzle.Public != (keygen.PublicKey{E: 5, N: 391}) {
		t.Fatalf("unexpected public key %+v", puzzle.Public)
	}
	if puzzle.Health != 50 || puzzle.MaxHealth != 50 {
		t.Fatalf("expected health 50, got %d/%d", puzzle.Health, puzzle.MaxHealth)
	}
}

func TestMintMessageRangeAndCiphertext(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		puzzle, err := Mint(MintRequest{Seed: seed, Pair: keygen.PrimePair{P: 2, Q: 5}, Exponent: 3})
		if err != nil {
			t.Fatalf("Mint(seed %d) returned error: %v", seed, err)
		}
		// n = 10 caps the message below MaxMessage.
		if m := puzzle.Message(); m < 1 || m > 9 {
			t.Fatalf("seed %d: message %d out of [1, 9]", seed, m)
		}
		encrypted, err := cipher.Encrypt(puzzle.Message(), puzzle.Public)
		if err != nil {
			t.Fatalf("Encrypt returned error: %v", err)
		}
		if encrypted.Ciphertext != puzzle.Ciphertext {
			t.Fatalf("seed %d: ciphertext %d, want %d", seed, puzzle.Ciphertext, encrypted.Ciphertext)
		}
		if revealed := puzzle.Reveal(); revealed.Message != puzzle.Message() {
			t.Fatalf("seed %d: revealed %d, want %d", seed, revealed.Message, puzzle.Message())
		}
	}
}

func TestMintProfiles(t *testing.T) {
	tcs := []struct {
		typ        Type
		difficulty int
		health     int
		n          int64
	}{
		{TypeDrone, 3, 80, 391},
		{TypeSoldier, 2, 140, 10403},
		{TypeBoss, 5, 1000, 1022117},
		{TypeDrone, -4, 50, 391},
	}
	for _, tc := range tcs {
		puzzle, err := Mint(MintRequest{Seed: 1, Type: tc.typ, Difficulty: tc.difficulty})
		if err != nil {
			t.Fatalf("Mint(%s) returned error: %v", tc.typ, err)
		}
		if puzzle.Health != tc.health {
			t.Fatalf("%s health = %d, want %d", tc.typ, puzzle.Health, tc.health)
		}
		if puzzle.Public.N != tc.n {
			t.Fatalf("%s modulus = %d, want %d", tc.typ, puzzle.Public.N, tc.n)
		}
		if puzzle.Reveal().Message != puzzle.Message() {
			t.Fatalf("%s did not reveal its message", tc.typ)
		}
	}
}

func TestMintRejectsBadExponent(t *testing.T) {
	// φ(17·23) = 352 is even.
	_, err := Mint(MintRequest{Seed: 1, Exponent: 4})
	if !errors.Is(err, keygen.ErrInvalidExponent) {
		t.Fatalf("Mint error = %v, want %v", err, keygen.ErrInvalidExponent)
	}
}

func TestResolve(t *testing.T) {
	puzzle, err := Mint(MintRequest{Seed: 3, Type: TypeDrone, Difficulty: 1})
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	keys, err := NewKeyRing(2)
	if err != nil {
		t.Fatalf("NewKeyRing returned error: %v", err)
	}

	miss := puzzle.Resolve(keys[1].Public)
	if miss.Correct || miss.Damage != ChipDamage || miss.Destroyed {
		t.Fatalf("unexpected miss: %+v", miss)
	}
	if puzzle.Health != 50 {
		t.Fatalf("expected health 50, got %d", puzzle.Health)
	}

	hit := puzzle.Resolve(keys[0].Public)
	if !hit.Correct || hit.Damage != 50 || !hit.Destroyed {
		t.Fatalf("unexpected hit: %+v", hit)
	}
	if !puzzle.Destroyed() {
		t.Fatal("expected puzzle to be destroyed")
	}

	again := puzzle.Resolve(keys[0].Public)
	if again.Damage != 0 || !again.Destroyed {
		t.Fatalf("unexpected hit on destroyed puzzle: %+v", again)
	}
}

func TestResolveChipDamageIsCapped(t *testing.T) {
	puzzle, err := Mint(MintRequest{Seed: 3})
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	puzzle.Health = 4
	wrong := keygen.PublicKey{E: 5, N: 551}
	hit := puzzle.Resolve(wrong)
	if hit.Damage != 4 || !hit.Destroyed {
		t.Fatalf("unexpected hit: %+v", hit)
	}
}

func TestWave(t *testing.T) {
	tcs := []struct {
		wave int
		want []Type
	}{
		{1, []Type{TypeDrone, TypeDrone, TypeDrone, TypeDrone}},
		{4, []Type{TypeDrone, TypeDrone, TypeDrone, TypeDrone, TypeDrone, TypeSoldier, TypeSoldier}},
		{5, []Type{TypeDrone, TypeDrone, TypeDrone, TypeDrone, TypeDrone, TypeDrone, TypeSoldier, TypeBoss}},
	}
	for _, tc := range tcs {
		got := Wave(tc.wave)
		if len(got) != len(tc.want) {
			t.Fatalf("Wave(%d) has %d enemies, want %d", tc.wave, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Wave(%d)[%d] = %s, want %s", tc.wave, i, got[i], tc.want[i])
			}
		}
	}
}

func TestMintWave(t *testing.T) {
	first, err := MintWave(99, 5)
	if err != nil {
		t.Fatalf("MintWave returned error: %v", err)
	}
	second, err := MintWave(99, 5)
	if err != nil {
		t.Fatalf("MintWave returned error: %v", err)
	}
	types := Wave(5)
	if len(first) != len(types) {
		t.Fatalf("expected %d enemies, got %d", len(types), len(first))
	}
	for i, puzzle := range first {
		if puzzle.Type != types[i] {
			t.Fatalf("enemy %d type = %s, want %s", i, puzzle.Type, types[i])
		}
		if puzzle.Ciphertext != second[i].Ciphertext || puzzle.Message() != second[i].Message() {
			t.Fatalf("enemy %d differs between equal seeds", i)
		}
		if puzzle.MaxHealth != ProfileFor(puzzle.Type).BaseHealth+5*ProfileFor(puzzle.Type).HealthPerLevel {
			t.Fatalf("enemy %d health = %d", i, puzzle.MaxHealth)
		}
	}
}

func TestTypeString(t *testing.T) {
	if TypeBoss.String() != "boss" || TypeUnspecified.String() != "unspecified" {
		t.Fatalf("unexpected type names %q %q", TypeBoss, TypeUnspecified)
	}
}
