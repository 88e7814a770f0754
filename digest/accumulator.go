package digest

import (
	"encoding/hex"
	"hash"
	"io"
)

// Accumulator absorbs a byte stream into SHA-256, SHA-1 and
// MD5 states in lockstep. It is a single-writer sink: calls
// to Write must not race with each other or with Sum.
type Accumulator struct {
	states [numAlgorithms]hash.Hash
	size   int64
}

var (
	_ io.Writer       = (*Accumulator)(nil)
	_ io.StringWriter = (*Accumulator)(nil)
)

// New returns an accumulator in the zero-input state.
func New() *Accumulator {
	ac := &Accumulator{}

	for i, alg := range Algorithms() {
		ac.states[i] = alg.New()
	}

	return ac
}

// Write feeds p to every hash state. It never fails; the
// error result exists to satisfy io.Writer.
func (ac *Accumulator) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for _, st := range ac.states {
		_, _ = st.Write(p) //nolint:errcheck // documented to never fail
	}

	ac.size += int64(len(p))

	return len(p), nil
}

// WriteString is Write for a string.
func (ac *Accumulator) WriteString(s string) (int, error) {
	return ac.Write([]byte(s))
}

// Size reports the number of bytes absorbed so far.
func (ac *Accumulator) Size() int64 {
	return ac.size
}

// Sum finalizes every state into a Result. The running states
// are left untouched, so Sum is idempotent and later writes
// continue the same stream.
func (ac *Accumulator) Sum() Result {
	res := Result{size: ac.size}

	for i, st := range ac.states {
		res.hex[i] = hex.EncodeToString(st.Sum(nil))
	}

	return res
}

// Reset returns the accumulator to the zero-input state.
func (ac *Accumulator) Reset() {
	for _, st := range ac.states {
		st.Reset()
	}

	ac.size = 0
}
