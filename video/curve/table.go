package curve

import (
	"fmt"
	"math"
)

// LookupTable maps every 8-bit sample value to its transformed value. Tables
// are never mutated after construction and are safe to share.
type LookupTable [256]uint8

// NewLookupTable evaluates f at each whole input value, rounding and clamping
// the result to [0,255]. It returns nil for a nil f.
func NewLookupTable(f Func) *LookupTable {
	if f == nil {
		return nil
	}
	var t LookupTable
	for i := range t {
		v := f(float64(i))
		switch {
		case math.IsNaN(v) || v <= 0:
			t[i] = 0
		case v >= 255:
			t[i] = 255
		default:
			t[i] = uint8(math.Round(v))
		}
	}
	return &t
}

// Compile builds the table for a control-point curve. It returns nil when the
// points don't form a valid curve; applying a nil table is a no-op.
func Compile(points []ControlPoint) *LookupTable {
	f, err := CurveFunc(points)
	if err != nil {
		return nil
	}
	return NewLookupTable(f)
}

// MustCompile is like Compile but panics on an invalid curve. Use it where the
// curve is fixed at build time.
func MustCompile(points []ControlPoint) *LookupTable {
	f, err := CurveFunc(points)
	if err != nil {
		panic(fmt.Sprintf("curve: %v", err))
	}
	return NewLookupTable(f)
}

// Identity returns the table mapping every value to itself.
func Identity() *LookupTable {
	var t LookupTable
	for i := range t {
		t[i] = uint8(i)
	}
	return &t
}

// Apply writes t[src[i]] to dst[i]. src and dst may be the same slice. A nil
// table leaves dst untouched.
func (t *LookupTable) Apply(src, dst []uint8) {
	if t == nil {
		return
	}
	if len(dst) < len(src) {
		panic(fmt.Sprintf("curve: destination holds %d samples, source %d", len(dst), len(src)))
	}
	for i, v := range src {
		dst[i] = t[v]
	}
}

// ApplyStrided is Apply restricted to every stride-th sample starting at
// offset, e.g. one channel of an interleaved buffer.
func (t *LookupTable) ApplyStrided(src, dst []uint8, offset, stride int) {
	if t == nil {
		return
	}
	for i := offset; i < len(src); i += stride {
		dst[i] = t[src[i]]
	}
}

// Then returns the table applying t and then next. Either may be nil.
func (t *LookupTable) Then(next *LookupTable) *LookupTable {
	switch {
	case t == nil:
		return next
	case next == nil:
		return t
	}
	var out LookupTable
	for i := range out {
		out[i] = next[t[i]]
	}
	return &out
}
