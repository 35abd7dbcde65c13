// Package guard provides canary-guarded memory blocks for detecting
// out-of-bounds writes by code under test.
package guard

import (
	"bytes"
	"fmt"
)

// canary is the fixed pattern written immediately before and after the
// usable region. 16 bytes of non-trivial data makes an accidental collision
// with random fuzz input negligible.
var canary = [16]byte{
	0xdf, 0xba, 0x18, 0xa0, 0x51, 0x91, 0x3c, 0xd6,
	0x03, 0xfb, 0x2c, 0xa6, 0xd6, 0x88, 0xa5, 0x75,
}

// Block is a usable byte region bracketed by canary patterns. The requested
// size is recorded next to the backing slice rather than hidden inside it,
// so Check always derives canary positions from what Alloc recorded and not
// from anything the block's user supplies.
type Block struct {
	backing []byte
	size    int
}

// Alloc reserves n usable zeroed bytes with a canary on each side.
func Alloc(n int) *Block {
	b := &Block{
		backing: make([]byte, n+2*len(canary)),
		size:    n,
	}
	copy(b.backing, canary[:])
	copy(b.backing[len(canary)+n:], canary[:])
	return b
}

// Data returns the usable region. The slice capacity deliberately extends
// into the trailing canary: code that re-slices or writes past its declared
// length lands on the pattern, where Check will see it, instead of on
// unrelated memory.
func (b *Block) Data() []byte {
	return b.backing[len(canary) : len(canary)+b.size]
}

// Size returns the usable size recorded at allocation.
func (b *Block) Size() int { return b.size }

// Check verifies both canary regions still hold the original pattern. A
// non-nil error means something wrote outside the usable region.
func (b *Block) Check() error {
	front := b.backing[:len(canary)]
	rear := b.backing[len(canary)+b.size:]
	if !bytes.Equal(front, canary[:]) {
		return fmt.Errorf("guard: leading canary overwritten (size=%d, got % x)", b.size, front)
	}
	if !bytes.Equal(rear, canary[:]) {
		return fmt.Errorf("guard: trailing canary overwritten (size=%d, got % x)", b.size, rear)
	}
	return nil
}

// Release drops the backing storage. Safe to call on a nil block.
func (b *Block) Release() {
	if b == nil {
		return
	}
	b.backing = nil
	b.size = 0
}
