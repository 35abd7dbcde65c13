package fuzz

import (
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kk-code-lab/streamfuzz/internal/decoder"
	"github.com/kk-code-lab/streamfuzz/internal/journal"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 1))
}

func TestZeroLengthInput(t *testing.T) {
	v, _ := decoder.ForName("raw")
	res, err := RunIteration(v, 0, testRNG())
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if res.Consumed != 0 || !res.Exhausted {
		t.Fatalf("got consumed=%d exhausted=%v, want 0/true", res.Consumed, res.Exhausted)
	}
}

func TestRawConsumesEverything(t *testing.T) {
	v, _ := decoder.ForName("raw")
	res, err := RunIteration(v, 1000, testRNG())
	if err != nil {
		t.Fatalf("RunIteration: %v", err)
	}
	if res.Consumed != 1000 || !res.Exhausted {
		t.Fatalf("got consumed=%d exhausted=%v, want 1000/true", res.Consumed, res.Exhausted)
	}
}

func TestIterationsOnRandomInput(t *testing.T) {
	rng := testRNG()
	for _, name := range decoder.Names() {
		v, _ := decoder.ForName(name)
		res, err := RunIteration(v, 4096, rng)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.Consumed > 4096 {
			t.Fatalf("%s: consumed %d of 4096", name, res.Consumed)
		}
	}
}

type overrunInstance struct{}

func (overrunInstance) Read(dst []byte) int {
	// One byte past the declared maximum chunk.
	over := dst[: len(dst)+1]
	over[len(dst)] = 0x42
	return 0
}

func (overrunInstance) Close() {}

func TestOutputOverrunDetected(t *testing.T) {
	v := &decoder.Variant{
		Name:        "overrun",
		ScratchSize: 16,
		MaxChunk:    8,
		New: func(scratch []byte, supply decoder.SupplyFunc) (decoder.Instance, error) {
			return overrunInstance{}, nil
		},
	}
	_, err := RunIteration(v, 64, testRNG())
	if err == nil {
		t.Fatal("output overrun went undetected")
	}
	if !strings.Contains(err.Error(), "canary") {
		t.Fatalf("unexpected error: %v", err)
	}
}

type scratchOverrunInstance struct {
	scratch []byte
}

func (s *scratchOverrunInstance) Read(dst []byte) int {
	over := s.scratch[: len(s.scratch)+1]
	over[len(s.scratch)] = 0x42
	return 0
}

func (s *scratchOverrunInstance) Close() {}

func TestScratchOverrunDetected(t *testing.T) {
	v := &decoder.Variant{
		Name:        "scratch-overrun",
		ScratchSize: 16,
		MaxChunk:    8,
		New: func(scratch []byte, supply decoder.SupplyFunc) (decoder.Instance, error) {
			return &scratchOverrunInstance{scratch: scratch}, nil
		},
	}
	_, err := RunIteration(v, 64, testRNG())
	if err == nil {
		t.Fatal("scratch overrun went undetected")
	}
	if !strings.Contains(err.Error(), "scratch") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRunnerUnknownDecoder(t *testing.T) {
	if _, err := NewRunner(Config{Variant: "lharc"}); err == nil {
		t.Fatal("NewRunner accepted an unknown decoder")
	}
}

func TestNewRunnerDerivesSeed(t *testing.T) {
	r, err := NewRunner(Config{Variant: "raw"})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if r.Seed() == 0 {
		t.Fatal("seed was not derived")
	}
}

func TestRunnerJournalsIterations(t *testing.T) {
	store, err := journal.Open(filepath.Join(t.TempDir(), "fuzz.db"))
	if err != nil {
		t.Fatalf("journal open: %v", err)
	}
	defer store.Close()

	r, err := NewRunner(Config{
		Variant:    "raw",
		MaxLen:     256,
		Iterations: 3,
		Seed:       42,
		Quiet:      true,
		Journal:    store,
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sums, err := store.Summaries(t.Context())
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	s := sums[0]
	if s.Decoder != "raw" || s.Iterations != 3 || s.Exhausted != 3 || s.Consumed != 768 || s.Findings != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
