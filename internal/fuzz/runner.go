package fuzz

import (
	"encoding/hex"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kk-code-lab/streamfuzz/internal/decoder"
	"github.com/kk-code-lab/streamfuzz/internal/journal"
)

// DefaultMaxLen is the default random input size per iteration (2 MiB).
const DefaultMaxLen = 2 << 20

// Config controls a fuzz run.
type Config struct {
	Variant    string
	MaxLen     int            // input bytes per iteration; <= 0 means DefaultMaxLen
	Iterations int            // 0 = run until interrupted
	Seed       int64          // 0 = derive from wall clock
	Quiet      bool           // suppress per-iteration progress lines
	Journal    *journal.Store // optional results journal
}

// Runner drives the iteration loop for one decoder variant.
type Runner struct {
	cfg Config
	v   *decoder.Variant
	rng *rand.Rand
}

// NewRunner resolves the variant and seeds the generator. An unknown
// decoder name is a configuration error.
func NewRunner(cfg Config) (*Runner, error) {
	v, ok := decoder.ForName(cfg.Variant)
	if !ok {
		return nil, fmt.Errorf("fuzz: unknown decoder %q (have: %s)",
			cfg.Variant, strings.Join(decoder.Names(), ", "))
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = DefaultMaxLen
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Runner{
		cfg: cfg,
		v:   v,
		rng: rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed))),
	}, nil
}

// Seed returns the seed the run was started with, for reproduction.
func (r *Runner) Seed() int64 { return r.cfg.Seed }

// Run executes iterations until the configured count is reached. With
// Iterations == 0 it returns only when an iteration reports a violation; by
// then the finding has been journaled and logged, and the returned error
// describes it.
func (r *Runner) Run() error {
	for i := 0; r.cfg.Iterations == 0 || i < r.cfg.Iterations; i++ {
		if !r.cfg.Quiet {
			log.Printf("iter=%d decoder=%s len=%d", i, r.v.Name, r.cfg.MaxLen)
		}
		res, err := RunIteration(r.v, r.cfg.MaxLen, r.rng)
		if err != nil {
			r.recordFinding(i, res, err)
			return err
		}
		outcome := "early"
		if res.Exhausted {
			outcome = "eof"
		}
		if !r.cfg.Quiet {
			log.Printf("iter=%d done=%s consumed=%d hash=%s dur_ms=%d",
				i, outcome, res.Consumed, hex.EncodeToString(res.InputHash[:8]), res.Duration.Milliseconds())
		}
		if r.cfg.Journal != nil {
			it := journal.Iteration{
				Decoder:   r.v.Name,
				Seed:      r.cfg.Seed,
				Iter:      i,
				InputLen:  r.cfg.MaxLen,
				InputHash: hex.EncodeToString(res.InputHash[:]),
				Consumed:  res.Consumed,
				Exhausted: res.Exhausted,
				Duration:  res.Duration,
			}
			if err := r.cfg.Journal.RecordIteration(it); err != nil {
				return fmt.Errorf("fuzz: journal write: %w", err)
			}
		}
	}
	return nil
}

// recordFinding logs a detected violation and journals it before the
// process goes down. The journal write is best effort: the abort must not
// be masked by a failing database.
func (r *Runner) recordFinding(iter int, res Result, cause error) {
	log.Printf("VIOLATION iter=%d decoder=%s seed=%d consumed=%d err=%v",
		iter, r.v.Name, r.cfg.Seed, res.Consumed, cause)
	if r.cfg.Journal == nil {
		return
	}
	f := journal.Finding{
		Decoder:   r.v.Name,
		Seed:      r.cfg.Seed,
		Iter:      iter,
		InputLen:  r.cfg.MaxLen,
		InputHash: hex.EncodeToString(res.InputHash[:]),
		Detail:    cause.Error(),
	}
	if err := r.cfg.Journal.RecordFinding(f); err != nil {
		log.Printf("journal finding write failed: %v", err)
	}
}
