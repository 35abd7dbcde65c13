package decoder

const rawChunk = 4096

func init() {
	register(&Variant{
		Name:        "raw",
		ScratchSize: rawChunk,
		MaxChunk:    rawChunk,
		New: func(scratch []byte, supply SupplyFunc) (Instance, error) {
			return &rawDecoder{scratch: scratch, supply: supply}, nil
		},
	})
}

// rawDecoder passes input through untouched, staged via the scratch block.
// One supply call per Read keeps the step size as small as the supply
// policy allows.
type rawDecoder struct {
	scratch []byte
	supply  SupplyFunc
}

func (d *rawDecoder) Read(dst []byte) int {
	n := d.supply(d.scratch[:min(len(d.scratch), len(dst))])
	copy(dst, d.scratch[:n])
	return n
}

func (d *rawDecoder) Close() {}
