// Package primitive implements the closed catalog of primitive effects
// (§4.1 of the specification) and their per-sample numeric semantics.
// Every primitive is evaluated the same way by both the reference
// evaluator and the JIT evaluator; this package is the single source of
// truth so the two can never silently diverge.
package primitive

import (
	"fmt"
	"math"
	"net/url"

	"github.com/yesoreyeram/routegraph/pkg/ids"
)

// Kind enumerates the fixed set of primitive effects. New primitives
// require a code change here and nowhere else.
type Kind int

const (
	Delay Kind = iota
	Constant
	Sum2
	Multiply
	Divide
	Modulo
	Minimum
)

// urlPath is the recognized "primitive:///..." path for each kind, per
// the URL scheme table in §6.3.
var urlPath = map[Kind]string{
	Delay:    "/Delay",
	Constant: "/F32Constant",
	Sum2:     "/Sum2",
	Multiply: "/Multiply",
	Divide:   "/Divide",
	Modulo:   "/Modulo",
	Minimum:  "/Minimum",
}

var pathToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(urlPath))
	for k, p := range urlPath {
		m[p] = k
	}
	return m
}()

// String returns the primitive's catalog name, matching its persisted
// effect name (e.g. "Delay", "F32Constant").
func (k Kind) String() string {
	switch k {
	case Delay:
		return "Delay"
	case Constant:
		return "F32Constant"
	case Sum2:
		return "Sum2"
	case Multiply:
		return "Multiply"
	case Divide:
		return "Divide"
	case Modulo:
		return "Modulo"
	case Minimum:
		return "Minimum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// URL returns the fixed "primitive:///<path>" locator for k.
func (k Kind) URL() string {
	return "primitive://" + urlPath[k]
}

// FromEffectID reports whether id names a primitive, per §3.1: exactly
// one URL with scheme "primitive" and a recognized path.
func FromEffectID(id ids.EffectID) (Kind, bool) {
	if len(id.URLs) != 1 {
		return 0, false
	}
	u, err := url.Parse(id.URLs[0])
	if err != nil || u.Scheme != "primitive" {
		return 0, false
	}
	k, ok := pathToKind[u.Path]
	return k, ok
}

// InputSlots returns the declared input slots for kind, per the table in
// §6.3. Constant has no inputs.
func (k Kind) InputSlots() []ids.Slot {
	switch k {
	case Delay, Sum2, Multiply, Divide, Modulo, Minimum:
		return []ids.Slot{0, 1}
	case Constant:
		return nil
	default:
		return nil
	}
}

// OutputSlots returns the declared output slots for kind, or nil for
// Constant, whose logical output is indexed by every possible u32 bit
// pattern (validated structurally instead; see HasUnboundedOutputs).
func (k Kind) OutputSlots() []ids.Slot {
	if k == Constant {
		return nil
	}
	return []ids.Slot{0}
}

// HasUnboundedOutputs reports whether kind decodes its output slot
// directly as an f32 bit pattern rather than exposing a fixed set of
// output slots (true only for Constant).
func (k Kind) HasUnboundedOutputs() bool { return k == Constant }

// Reader resolves the value of an input slot at a given time. Both
// evaluators supply their own Reader: the reference evaluator's is a
// closure over its context stack (§4.2), the JIT evaluator's is the
// Callback ABI of §4.3.1.
type Reader func(slot ids.Slot, t uint64) float32

// twoPow64 is 2**64 as a float64, used for the Delay bounds check; 2**64
// is not exactly representable as float32 but the comparison only needs
// to distinguish "below" from "at or above", which float64 does exactly
// for any float32 input promoted to float64.
const twoPow64 = 18446744073709551616.0

// Eval computes the output of the primitive node of the given kind at
// slot and time t. data is the weight payload of the edge sourced from
// this node (used only by Constant, which decodes it as an f32 bit
// pattern). in resolves this node's own inputs.
//
// Eval is total: it never panics and always returns a value, per the
// "runtime numeric conditions are not errors" rule in §7.
func Eval(kind Kind, slot ids.Slot, t uint64, data uint32, in Reader) float32 {
	switch kind {
	case Constant:
		return math.Float32frombits(data)

	case Sum2:
		if slot != 0 {
			return 0
		}
		return in(0, t) + in(1, t)

	case Multiply:
		if slot != 0 {
			return 0
		}
		return in(0, t) * in(1, t)

	case Divide:
		if slot != 0 {
			return 0
		}
		// Native float32 division already has IEEE-754 semantics for
		// division by zero (±Inf, or NaN for 0/0).
		return in(0, t) / in(1, t)

	case Modulo:
		if slot != 0 {
			return 0
		}
		return modulo(in(0, t), in(1, t))

	case Minimum:
		if slot != 0 {
			return 0
		}
		return min(in(0, t), in(1, t))

	case Delay:
		if slot != 0 {
			return 0
		}
		frames := in(1, t)
		f := float64(frames)
		if f < 0 || f >= twoPow64 {
			return 0
		}
		n := uint64(math.Floor(f))
		if n > t {
			return 0
		}
		return in(0, t-n)

	default:
		return 0
	}
}

// modulo implements the true non-negative modulo of §4.1: the result
// lies in [0, b) for b > 0. For b <= 0 the result is whatever the
// formula produces (deterministic, but not meaningfully bounded) -
// matching the spec's "implementation-defined but deterministic" clause.
func modulo(a, b float32) float32 {
	q := float32(math.Floor(float64(a) / float64(b)))
	r := a - b*q
	if r < 0 {
		r += b
	}
	return r
}

// ult is the IEEE "unordered or less than" predicate: true when a < b or
// either operand is NaN. min(a, b) is defined in terms of it, so min
// returns a whenever either operand is NaN (a NaN in a propagates, a NaN
// in b is dropped), matching the reference
// LLVM fcmp ult + select lowering this primitive is modeled on.
func ult(a, b float32) bool {
	return !(a >= b)
}

// min returns the IEEE-ult minimum of a and b. max is expressible as
// -min(-a, -b) and is not separately provided (there is no Maximum
// primitive in the catalog).
func min(a, b float32) float32 {
	if ult(a, b) {
		return a
	}
	return b
}
