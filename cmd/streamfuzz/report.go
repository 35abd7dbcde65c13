package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kk-code-lab/streamfuzz/internal/journal"
)

func writeJSON(v any) error {
	if s, ok := v.([]journal.DecoderSummary); ok && s == nil {
		v = []journal.DecoderSummary{}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func formatSummaries(sums []journal.DecoderSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %10s %10s %10s %14s %9s\n",
		"DECODER", "ITERS", "EOF", "EARLY", "CONSUMED", "FINDINGS")
	for _, s := range sums {
		fmt.Fprintf(&b, "%-10s %10d %10d %10d %14d %9d\n",
			s.Decoder, s.Iterations, s.Exhausted, s.EarlyStops, s.Consumed, s.Findings)
	}
	if len(sums) == 0 {
		b.WriteString("(journal is empty)\n")
	}
	return b.String()
}
