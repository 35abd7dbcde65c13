// Package supply adapts an in-memory input buffer into the pull callback a
// decoder reads compressed data through.
package supply

// Session tracks delivery of one input buffer to one decoder instance. The
// buffer is borrowed from the caller for the lifetime of a single fuzz
// iteration; the cursor only moves forward and never passes the end.
type Session struct {
	data []byte
	pos  int
}

// NewSession creates a session over the given buffer.
func NewSession(data []byte) *Session {
	return &Session{data: data}
}

// Supply copies input into dst and returns the number of bytes written, or 0
// at end of stream. At most one byte is delivered per call even when dst is
// larger, so the decoder crosses a refill boundary on every single input
// byte. Calls after exhaustion keep returning 0 with no side effects.
func (s *Session) Supply(dst []byte) int {
	if s.pos >= len(s.data) || len(dst) == 0 {
		return 0
	}
	dst[0] = s.data[s.pos]
	s.pos++
	return 1
}

// Consumed reports how many bytes have been delivered so far.
func (s *Session) Consumed() int { return s.pos }
