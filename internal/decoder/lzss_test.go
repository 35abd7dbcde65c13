package decoder_test

import (
	"bytes"
	"testing"

	"github.com/kk-code-lab/streamfuzz/internal/decoder"
	"github.com/kk-code-lab/streamfuzz/internal/supply"
)

// literalStream encodes data as LZSS literals only: one flag byte with all
// used bits set per group of up to eight bytes.
func literalStream(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); i += 8 {
		end := min(i+8, len(data))
		var flags byte
		for j := i; j < end; j++ {
			flags |= 1 << (j - i)
		}
		out = append(out, flags)
		out = append(out, data[i:end]...)
	}
	return out
}

func TestLZSSLiterals(t *testing.T) {
	v, _ := decoder.ForName("lzss")
	payload := []byte("literal bytes only, spanning more than one flag group")
	out := drain(t, v, literalStream(payload), 1<<20)
	if !bytes.Equal(out, payload) {
		t.Fatalf("decoded %q, want %q", out, payload)
	}
}

func TestLZSSCopyFromHistory(t *testing.T) {
	v, _ := decoder.ForName("lzss")
	// Three literals land at ring positions 4078..4080 (the write cursor
	// starts at window-maxmatch). A copy of length 3 from position 4078
	// replays them: offset 4078 = 0xfee encodes as lo=0xee, hi=0xf0|len-3.
	stream := []byte{0x07, 'a', 'b', 'c', 0xee, 0xf0}
	out := drain(t, v, stream, 1<<20)
	if want := []byte("abcabc"); !bytes.Equal(out, want) {
		t.Fatalf("decoded %q, want %q", out, want)
	}
}

func TestLZSSOverlappingCopy(t *testing.T) {
	v, _ := decoder.ForName("lzss")
	// One literal then a maximal copy starting at the literal's own
	// position 4078 (0xfee): the copy chases the write cursor, the classic
	// RLE case. lo=0xee, hi=0xf0|15 for the maximum length of 18.
	stream := []byte{0x01, 'x', 0xee, 0xff}
	out := drain(t, v, stream, 1<<20)
	if want := bytes.Repeat([]byte{'x'}, 19); !bytes.Equal(out, want) {
		t.Fatalf("decoded % x, want 19 x's", out)
	}
}

func TestLZSSCopyOffsetHighNibble(t *testing.T) {
	v, _ := decoder.ForName("lzss")
	// The top four offset bits come from the second code byte's high
	// nibble. With hi=0xe0 the offset is 0xeee, not 0xfee, so this copy
	// reads untouched ring positions and yields spaces, not the literal.
	stream := []byte{0x01, 'x', 0xee, 0xe0}
	out := drain(t, v, stream, 1<<20)
	if want := []byte("x   "); !bytes.Equal(out, want) {
		t.Fatalf("decoded %q, want %q", out, want)
	}
}

func TestLZSSTruncatedCopyCode(t *testing.T) {
	v, _ := decoder.ForName("lzss")
	// Flag announces a copy but the stream ends after the first code byte.
	out := drain(t, v, []byte{0x00, 0xee}, 1<<20)
	if len(out) != 0 {
		t.Fatalf("truncated copy produced %d bytes", len(out))
	}
}

func TestLZSSScratchTooSmall(t *testing.T) {
	v, _ := decoder.ForName("lzss")
	sess := supply.NewSession(nil)
	if _, err := v.New(make([]byte, 16), sess.Supply); err == nil {
		t.Fatal("New accepted an undersized scratch block")
	}
}

func FuzzLZSS(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x07, 'a', 'b', 'c', 0xee, 0xf0})
	f.Add([]byte{0x00, 0xff, 0xff, 0x00, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		v, _ := decoder.ForName("lzss")
		sess := supply.NewSession(data)
		inst, err := v.New(make([]byte, v.ScratchSize), sess.Supply)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer inst.Close()

		// Worst case each two-byte copy code expands to 18 output bytes.
		bound := 16*len(data) + 64
		total := 0
		dst := make([]byte, v.MaxChunk)
		for {
			n := inst.Read(dst)
			if n == 0 {
				break
			}
			total += n
			if total > bound {
				t.Fatalf("output %d exceeds expansion bound %d for %d input bytes", total, bound, len(data))
			}
		}
		if sess.Consumed() > len(data) {
			t.Fatalf("consumed %d of %d input bytes", sess.Consumed(), len(data))
		}
	})
}
