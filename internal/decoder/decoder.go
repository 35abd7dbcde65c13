// Package decoder defines the pluggable streaming-decoder capability the
// fuzz harness drives, and the registry of concrete variants.
package decoder

import "sort"

// SupplyFunc requests more compressed input. It writes at most len(dst)
// bytes into dst and returns the count; 0 signals permanent end of stream.
type SupplyFunc func(dst []byte) int

// Instance is one live decoder bound to an input supply.
type Instance interface {
	// Read decodes the next chunk into dst and returns the number of bytes
	// produced. 0 means no further output will be produced, whether the
	// stream ended cleanly or the input turned out to be garbage; the two
	// are deliberately not distinguished.
	Read(dst []byte) int

	// Close releases any resources held by the instance.
	Close()
}

// Variant describes one registered decoder implementation.
type Variant struct {
	Name string

	// ScratchSize is the amount of working memory the harness allocates for
	// each instance (history window, staging buffer). An instance must
	// confine its state writes to the scratch slice it is given.
	ScratchSize int

	// MaxChunk is the largest number of bytes a single Read may produce.
	MaxChunk int

	// New creates an instance over the given scratch memory and input
	// supply. Failure here indicates broken wiring, not bad input.
	New func(scratch []byte, supply SupplyFunc) (Instance, error)
}

var registry = map[string]*Variant{}

func register(v *Variant) {
	registry[v.Name] = v
}

// ForName looks up a variant by name.
func ForName(name string) (*Variant, bool) {
	v, ok := registry[name]
	return v, ok
}

// Names returns the registered variant names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
