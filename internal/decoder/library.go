package decoder

import (
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// libChunk is the staging and output chunk size for the library-backed
// variants.
const libChunk = 32 << 10

func init() {
	register(libraryVariant("flate", func(r io.Reader) (io.ReadCloser, error) {
		return flate.NewReader(r), nil
	}))
	register(libraryVariant("gzip", func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	}))
	register(libraryVariant("zlib", func(r io.Reader) (io.ReadCloser, error) {
		return zlib.NewReader(r)
	}))
	register(libraryVariant("zstd", func(r io.Reader) (io.ReadCloser, error) {
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	}))
	register(libraryVariant("snappy", func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(snappy.NewReader(r)), nil
	}))
	register(libraryVariant("s2", func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(s2.NewReader(r)), nil
	}))
	register(libraryVariant("brotli", func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(r)), nil
	}))
}

func libraryVariant(name string, open func(io.Reader) (io.ReadCloser, error)) *Variant {
	return &Variant{
		Name:        name,
		ScratchSize: libChunk,
		MaxChunk:    libChunk,
		New: func(scratch []byte, supply SupplyFunc) (Instance, error) {
			src := &supplyReader{supply: supply}
			return &readerDecoder{
				open:    func() (io.ReadCloser, error) { return open(src) },
				scratch: scratch,
			}, nil
		},
	}
}

// supplyReader adapts a SupplyFunc to io.Reader for decoders built on the
// standard streaming interfaces.
type supplyReader struct {
	supply SupplyFunc
	eof    bool
}

func (r *supplyReader) Read(p []byte) (int, error) {
	if r.eof {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := r.supply(p)
	if n == 0 {
		r.eof = true
		return 0, io.EOF
	}
	return n, nil
}

// readerDecoder drives a library decompressor behind io.ReadCloser, staging
// output through the guarded scratch block. Construction is deferred to the
// first Read because several constructors (gzip, zlib) consume and validate
// header bytes up front; for random input a header failure is an ordinary
// end-of-stream, not a harness error. Any later decode error is folded into
// end-of-stream the same way.
type readerDecoder struct {
	open    func() (io.ReadCloser, error)
	r       io.ReadCloser
	scratch []byte
	done    bool
}

func (d *readerDecoder) Read(dst []byte) int {
	if d.done {
		return 0
	}
	if d.r == nil {
		r, err := d.open()
		if err != nil {
			d.done = true
			return 0
		}
		d.r = r
	}
	buf := d.scratch[:min(len(d.scratch), len(dst))]
	n, err := d.r.Read(buf)
	copy(dst, buf[:n])
	if n == 0 || err != nil {
		d.done = true
	}
	return n
}

func (d *readerDecoder) Close() {
	if d.r != nil {
		_ = d.r.Close()
	}
}
