package decoder

import "fmt"

const (
	lzssWindow    = 4096
	lzssThreshold = 3
	lzssMaxMatch  = 18
	lzssChunk     = 512
)

func init() {
	register(&Variant{
		Name:        "lzss",
		ScratchSize: lzssWindow,
		MaxChunk:    lzssChunk,
		New:         newLZSS,
	})
}

// lzssDecoder decodes byte-aligned LZSS. A flag byte governs the next eight
// items: a set bit means one literal byte, a clear bit a two-byte
// (offset, length) copy from the 4 KiB history ring, with copy lengths of
// 3 to 18 bytes. The ring lives in the harness-provided scratch block and
// starts filled with spaces.
type lzssDecoder struct {
	ring   []byte
	pos    int
	supply SupplyFunc

	flags     uint8
	flagsLeft int

	// copy in progress, carried across Read calls
	copyFrom int
	copyLeft int

	eos bool
	one [1]byte
}

func newLZSS(scratch []byte, supply SupplyFunc) (Instance, error) {
	if len(scratch) < lzssWindow {
		return nil, fmt.Errorf("decoder: lzss scratch too small: %d < %d", len(scratch), lzssWindow)
	}
	ring := scratch[:lzssWindow]
	for i := range ring {
		ring[i] = ' '
	}
	return &lzssDecoder{
		ring:   ring,
		pos:    lzssWindow - lzssMaxMatch,
		supply: supply,
	}, nil
}

func (d *lzssDecoder) Read(dst []byte) int {
	if d.eos {
		return 0
	}
	n := 0
	for n < len(dst) {
		if d.copyLeft > 0 {
			b := d.ring[d.copyFrom]
			d.copyFrom = (d.copyFrom + 1) & (lzssWindow - 1)
			d.copyLeft--
			dst[n] = b
			n++
			d.emit(b)
			continue
		}
		if d.flagsLeft == 0 {
			v, ok := d.next()
			if !ok {
				d.eos = true
				break
			}
			d.flags = v
			d.flagsLeft = 8
		}
		literal := d.flags&1 != 0
		d.flags >>= 1
		d.flagsLeft--
		if literal {
			v, ok := d.next()
			if !ok {
				d.eos = true
				break
			}
			dst[n] = v
			n++
			d.emit(v)
			continue
		}
		lo, ok := d.next()
		if !ok {
			d.eos = true
			break
		}
		hi, ok := d.next()
		if !ok {
			d.eos = true
			break
		}
		d.copyFrom = (int(lo) | int(hi&0xf0)<<4) & (lzssWindow - 1)
		d.copyLeft = int(hi&0x0f) + lzssThreshold
	}
	return n
}

func (d *lzssDecoder) Close() {}

func (d *lzssDecoder) emit(b byte) {
	d.ring[d.pos] = b
	d.pos = (d.pos + 1) & (lzssWindow - 1)
}

func (d *lzssDecoder) next() (byte, bool) {
	if d.supply(d.one[:]) == 0 {
		return 0, false
	}
	return d.one[0], true
}
