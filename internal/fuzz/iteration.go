// Package fuzz implements the random-input iteration driver and the run
// loop that repeats it indefinitely.
package fuzz

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/zeebo/blake3"

	"github.com/kk-code-lab/streamfuzz/internal/decoder"
	"github.com/kk-code-lab/streamfuzz/internal/guard"
	"github.com/kk-code-lab/streamfuzz/internal/supply"
)

// Result is the outcome of one fuzz iteration.
type Result struct {
	Consumed  int
	Exhausted bool     // the decoder wanted more input than was available
	InputHash [32]byte // BLAKE3 of the generated input
	Duration  time.Duration
}

// RunIteration generates length random bytes, decodes them through the
// given variant one input byte at a time, and verifies the guarded blocks
// after every step. A non-nil error means the harness detected a bug (a
// canary overwrite or an instance that failed to initialize) and the
// caller must abort; the partial Result is still valid for reporting the
// finding.
func RunIteration(v *decoder.Variant, length int, rng *rand.Rand) (Result, error) {
	start := time.Now()

	input := make([]byte, length)
	for i := range input {
		input[i] = byte(rng.Uint64())
	}
	res := Result{InputHash: blake3.Sum256(input)}

	sess := supply.NewSession(input)

	state := guard.Alloc(v.ScratchSize)
	inst, err := v.New(state.Data(), sess.Supply)
	if err != nil {
		return res, fmt.Errorf("fuzz: init %s decoder: %w", v.Name, err)
	}

	out := guard.Alloc(v.MaxChunk)
	for {
		dst := out.Data()
		clear(dst)
		n := inst.Read(dst)
		if err := out.Check(); err != nil {
			res.Consumed = sess.Consumed()
			return res, fmt.Errorf("fuzz: %s output block after %d input bytes: %w", v.Name, sess.Consumed(), err)
		}
		if n == 0 {
			break
		}
	}

	inst.Close()
	if err := state.Check(); err != nil {
		res.Consumed = sess.Consumed()
		return res, fmt.Errorf("fuzz: %s scratch block after %d input bytes: %w", v.Name, sess.Consumed(), err)
	}
	out.Release()
	state.Release()

	res.Consumed = sess.Consumed()
	res.Exhausted = res.Consumed >= length
	res.Duration = time.Since(start)
	return res, nil
}
