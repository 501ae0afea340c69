// Operator semantics for apply-operator's xop sub-opcodes (§4.9).
// Grounded on internal/vm/vm_ops.go's binaryOp/bitwiseOp/comparisonOp
// int/float fast-path split, generalized to checked/saturating/
// wrapping integer variants and the string-repetition / string-bit-
// shift-as-padding rules spec.md adds beyond the teacher's numeric-only
// operators.
package air

import (
	"math"
	"strings"

	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

// XOp enumerates apply-operator's sub-opcodes (§3.6).
type XOp uint8

const (
	XInc XOp = iota
	XDec
	XSubscr
	XPos
	XNeg
	XNotB
	XNotL
	XUnset
	XCountOf
	XTypeOf
	XSqrt
	XIsNaN
	XIsInf
	XAbs
	XSign
	XRound
	XFloor
	XCeil
	XTrunc
	XIRound
	XIFloor
	XICeil
	XITrunc
	XCmpEq
	XCmpNe
	XCmpLt
	XCmpGt
	XCmpLte
	XCmpGte
	XCmp3Way
	XCmpUn
	XAdd
	XSub
	XMul
	XDiv
	XMod
	XSll
	XSrl
	XSla
	XSra
	XAndB
	XOrB
	XXorB
	XAssign
	XFma
	XHead
	XTail
	XLzcnt
	XTzcnt
	XPopcnt
	XAddM
	XSubM
	XMulM
	XAddS
	XSubS
	XMulS
	XRandom
)

// PRNG is the host pseudo-random source for the `random` operator.
type PRNG interface{ Intn(n int) int }

// XInc, XDec, XUnset and XRandom are not handled by UnaryOp/BinaryOp:
// inc/dec/unset need the operand's Reference (to write back or
// remove), and random needs the global PRNG -- all four are resolved
// directly against a Reference by the apply-operator executor in
// solidify.go, via RandomElement/reference.DereferenceMutable/
// DereferenceUnset.

// UnaryOp applies a one-operand xop (§4.9).
func UnaryOp(op XOp, a value.Value) (value.Value, *exception.Error) {
	switch op {
	case XPos:
		if !a.IsInteger() && !a.IsReal() {
			return value.Null, exception.Newf(exception.TypeMismatch, "unary + requires a number")
		}
		return a, nil
	case XNeg:
		switch {
		case a.IsInteger():
			n := a.AsInteger()
			if n == math.MinInt64 {
				return value.Null, exception.Newf(exception.ArithmeticOverflow, "negation overflow")
			}
			return value.Int(-n), nil
		case a.IsReal():
			return value.Real(-a.AsReal()), nil
		default:
			return value.Null, exception.Newf(exception.TypeMismatch, "unary - requires a number")
		}
	case XNotB:
		switch {
		case a.IsBoolean():
			return value.Bool(!a.AsBoolean()), nil
		case a.IsInteger():
			return value.Int(^a.AsInteger()), nil
		default:
			return value.Null, exception.Newf(exception.TypeMismatch, "~ requires a boolean or integer")
		}
	case XNotL:
		return value.Bool(!a.Test()), nil
	case XCountOf:
		switch a.Kind {
		case value.KNull:
			return value.Int(0), nil
		case value.KString:
			return value.Int(int64(len(a.AsBytes()))), nil
		case value.KArray:
			return value.Int(int64(a.AsArray().Len())), nil
		case value.KObject:
			return value.Int(int64(len(a.AsObject().Keys))), nil
		default:
			return value.Null, exception.Newf(exception.TypeMismatch, "countof does not apply to %s", a.TypeOf())
		}
	case XTypeOf:
		return value.Str(a.TypeOf()), nil
	case XSqrt:
		f, err := requireReal(a, "sqrt")
		if err != nil {
			return value.Null, err
		}
		return value.Real(math.Sqrt(f)), nil
	case XIsNaN:
		f, err := requireReal(a, "isnan")
		if err != nil {
			return value.Null, err
		}
		return value.Bool(math.IsNaN(f)), nil
	case XIsInf:
		f, err := requireReal(a, "isinf")
		if err != nil {
			return value.Null, err
		}
		return value.Bool(math.IsInf(f, 0)), nil
	case XAbs:
		switch {
		case a.IsInteger():
			n := a.AsInteger()
			if n == math.MinInt64 {
				return value.Null, exception.Newf(exception.ArithmeticOverflow, "abs overflow")
			}
			if n < 0 {
				n = -n
			}
			return value.Int(n), nil
		case a.IsReal():
			return value.Real(math.Abs(a.AsReal())), nil
		default:
			return value.Null, exception.Newf(exception.TypeMismatch, "abs requires a number")
		}
	case XSign:
		switch {
		case a.IsInteger():
			n := a.AsInteger()
			switch {
			case n > 0:
				return value.Int(1), nil
			case n < 0:
				return value.Int(-1), nil
			default:
				return value.Int(0), nil
			}
		case a.IsReal():
			f := a.AsReal()
			switch {
			case f > 0:
				return value.Real(1), nil
			case f < 0:
				return value.Real(-1), nil
			default:
				return value.Real(f), nil
			}
		default:
			return value.Null, exception.Newf(exception.TypeMismatch, "sign requires a number")
		}
	case XRound, XFloor, XCeil, XTrunc:
		f, err := requireReal(a, "round/floor/ceil/trunc")
		if err != nil {
			return value.Null, err
		}
		return value.Real(roundLike(op, f)), nil
	case XIRound, XIFloor, XICeil, XITrunc:
		f, err := requireReal(a, "iround/ifloor/iceil/itrunc")
		if err != nil {
			return value.Null, err
		}
		r := roundLike(intVariant(op), f)
		if r > math.MaxInt64 || r < math.MinInt64 || math.IsNaN(r) {
			return value.Null, exception.Newf(exception.ArithmeticOverflow, "integer conversion overflow")
		}
		return value.Int(int64(r)), nil
	case XHead:
		if !a.IsArray() {
			return value.Null, exception.Newf(exception.TypeMismatch, "head requires an array")
		}
		if a.AsArray().Len() == 0 {
			return value.Null, nil
		}
		return a.AsArray().Get(0), nil
	case XTail:
		if !a.IsArray() {
			return value.Null, exception.Newf(exception.TypeMismatch, "tail requires an array")
		}
		n := a.AsArray().Len()
		if n == 0 {
			return value.Null, nil
		}
		return a.AsArray().Get(n - 1), nil
	case XLzcnt, XTzcnt, XPopcnt:
		if !a.IsInteger() {
			return value.Null, exception.Newf(exception.TypeMismatch, "bit-count operators require an integer")
		}
		u := uint64(a.AsInteger())
		switch op {
		case XLzcnt:
			return value.Int(int64(bitsLeadingZeros(u))), nil
		case XTzcnt:
			return value.Int(int64(bitsTrailingZeros(u))), nil
		default:
			return value.Int(int64(bitsOnesCount(u))), nil
		}
	default:
		return value.Null, exception.Newf(exception.BadCall, "xop %d is not a unary operator", op)
	}
}

// BinaryOp applies a two-operand xop (§4.9).
func BinaryOp(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	switch op {
	case XAssign:
		return b, nil
	case XCmpEq, XCmpNe, XCmpLt, XCmpGt, XCmpLte, XCmpGte, XCmp3Way, XCmpUn:
		return compareOp(op, a, b)
	case XAdd:
		return arith(op, a, b)
	case XSub:
		return arith(op, a, b)
	case XMul:
		return arith(op, a, b)
	case XDiv, XMod:
		return divmod(op, a, b)
	case XSll, XSrl, XSla, XSra:
		return shift(op, a, b)
	case XAndB, XOrB, XXorB:
		return bitwise(op, a, b)
	case XAddM, XSubM, XMulM:
		return wrapping(op, a, b)
	case XAddS, XSubS, XMulS:
		return saturating(op, a, b)
	case XSubscr:
		return subscr(a, b)
	default:
		return value.Null, exception.Newf(exception.BadCall, "xop %d is not a binary operator", op)
	}
}

// TernaryOp applies fma (fused multiply-add, the one ternary xop).
func TernaryOp(op XOp, a, b, c value.Value) (value.Value, *exception.Error) {
	if op != XFma {
		return value.Null, exception.Newf(exception.BadCall, "xop %d is not a ternary operator", op)
	}
	fa, err := requireReal(a, "fma")
	if err != nil {
		return value.Null, err
	}
	fb, err := requireReal(b, "fma")
	if err != nil {
		return value.Null, err
	}
	fc, err := requireReal(c, "fma")
	if err != nil {
		return value.Null, err
	}
	return value.Real(math.FMA(fa, fb, fc)), nil
}

// RandomElement implements the `random` xop: pick a uniformly random
// array element using the host PRNG (§4.9).
func RandomElement(a value.Value, prng PRNG) (value.Value, *exception.Error) {
	if !a.IsArray() {
		return value.Null, exception.Newf(exception.TypeMismatch, "random requires an array")
	}
	n := a.AsArray().Len()
	if n == 0 || prng == nil {
		return value.Null, nil
	}
	return a.AsArray().Get(prng.Intn(n)), nil
}

func requireReal(a value.Value, name string) (float64, *exception.Error) {
	switch {
	case a.IsReal():
		return a.AsReal(), nil
	case a.IsInteger():
		return float64(a.AsInteger()), nil
	default:
		return 0, exception.Newf(exception.TypeMismatch, "%s requires a number", name)
	}
}

func intVariant(op XOp) XOp {
	switch op {
	case XIRound:
		return XRound
	case XIFloor:
		return XFloor
	case XICeil:
		return XCeil
	default:
		return XTrunc
	}
}

func roundLike(op XOp, f float64) float64 {
	switch op {
	case XRound:
		return math.Round(f)
	case XFloor:
		return math.Floor(f)
	case XCeil:
		return math.Ceil(f)
	default:
		return math.Trunc(f)
	}
}

func arith(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	if a.IsBoolean() && b.IsBoolean() {
		switch op {
		case XAdd:
			return value.Bool(a.AsBoolean() || b.AsBoolean()), nil
		case XSub:
			return value.Bool(a.AsBoolean() != b.AsBoolean()), nil
		case XMul:
			return value.Bool(a.AsBoolean() && b.AsBoolean()), nil
		}
	}
	if a.IsInteger() && b.IsInteger() {
		x, y := a.AsInteger(), b.AsInteger()
		switch op {
		case XAdd:
			r := x + y
			if (y > 0 && r < x) || (y < 0 && r > x) {
				return value.Null, exception.Newf(exception.ArithmeticOverflow, "integer addition overflow")
			}
			return value.Int(r), nil
		case XSub:
			r := x - y
			if (y < 0 && r < x) || (y > 0 && r > x) {
				return value.Null, exception.Newf(exception.ArithmeticOverflow, "integer subtraction overflow")
			}
			return value.Int(r), nil
		case XMul:
			if x == 0 || y == 0 {
				return value.Int(0), nil
			}
			r := x * y
			if r/y != x {
				return value.Null, exception.Newf(exception.ArithmeticOverflow, "integer multiplication overflow")
			}
			return value.Int(r), nil
		}
	}
	if (a.IsInteger() || a.IsReal()) && (b.IsInteger() || b.IsReal()) {
		x, y := toReal(a), toReal(b)
		switch op {
		case XAdd:
			return value.Real(x + y), nil
		case XSub:
			return value.Real(x - y), nil
		case XMul:
			return value.Real(x * y), nil
		}
	}
	if op == XAdd && a.IsString() && b.IsString() {
		return value.Str(a.AsString() + b.AsString()), nil
	}
	if op == XMul && a.IsString() && b.IsInteger() {
		return stringRepeat(a.AsString(), b.AsInteger())
	}
	if op == XMul && a.IsInteger() && b.IsString() {
		return stringRepeat(b.AsString(), a.AsInteger())
	}
	return value.Null, exception.Newf(exception.TypeMismatch, "operator not defined for %s and %s", a.TypeOf(), b.TypeOf())
}

func stringRepeat(s string, n int64) (value.Value, *exception.Error) {
	if n < 0 {
		return value.Null, exception.Newf(exception.OutOfRange, "negative repetition count")
	}
	if n > 0 && int64(len(s)) > (1<<31)/n {
		return value.Null, exception.Newf(exception.ArithmeticOverflow, "string repetition length overflow")
	}
	return value.Str(strings.Repeat(s, int(n))), nil
}

func toReal(v value.Value) float64 {
	if v.IsInteger() {
		return float64(v.AsInteger())
	}
	return v.AsReal()
}

func divmod(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	if a.IsInteger() && b.IsInteger() {
		x, y := a.AsInteger(), b.AsInteger()
		if y == 0 {
			return value.Null, exception.Newf(exception.DivideByZero, "integer division by zero")
		}
		if x == math.MinInt64 && y == -1 {
			return value.Null, exception.Newf(exception.ArithmeticOverflow, "integer division overflow")
		}
		if op == XDiv {
			return value.Int(x / y), nil
		}
		return value.Int(x % y), nil
	}
	if (a.IsInteger() || a.IsReal()) && (b.IsInteger() || b.IsReal()) {
		x, y := toReal(a), toReal(b)
		if op == XDiv {
			return value.Real(x / y), nil
		}
		return value.Real(math.Mod(x, y)), nil
	}
	return value.Null, exception.Newf(exception.TypeMismatch, "/ and %% require numbers")
}

func shift(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	if !b.IsInteger() {
		return value.Null, exception.Newf(exception.TypeMismatch, "shift count must be an integer")
	}
	n := b.AsInteger()
	if n < 0 || n > 63 {
		return value.Null, exception.Newf(exception.OutOfRange, "shift count out of range")
	}
	if a.IsInteger() {
		u := uint64(a.AsInteger())
		switch op {
		case XSll:
			return value.Int(int64(u << uint(n))), nil
		case XSrl:
			return value.Int(int64(u >> uint(n))), nil
		case XSla:
			r := a.AsInteger() << uint(n)
			if (r >> uint(n)) != a.AsInteger() {
				return value.Null, exception.Newf(exception.ArithmeticOverflow, "arithmetic left shift overflow")
			}
			return value.Int(r), nil
		default: // XSra
			return value.Int(a.AsInteger() >> uint(n)), nil
		}
	}
	if a.IsString() {
		s := a.AsString()
		switch op {
		case XSll:
			return value.Str(padOrTrimLeft(s, int(n), false)), nil
		case XSrl:
			return value.Str(padOrTrimLeft(s, int(n), true)), nil
		case XSla:
			return value.Str(s + strings.Repeat(" ", int(n))), nil
		default: // XSra
			if int(n) >= len(s) {
				return value.Str(""), nil
			}
			return value.Str(s[:len(s)-int(n)]), nil
		}
	}
	return value.Null, exception.Newf(exception.TypeMismatch, "shift requires an integer or string")
}

// padOrTrimLeft implements the length-preserving string shift rule
// (§4.9): sll drops n leading bytes and pads the tail with spaces,
// srl drops n trailing bytes and pads the head with spaces.
func padOrTrimLeft(s string, n int, right bool) string {
	if n >= len(s) {
		return strings.Repeat(" ", len(s))
	}
	if right {
		return strings.Repeat(" ", n) + s[:len(s)-n]
	}
	return s[n:] + strings.Repeat(" ", n)
}

func bitwise(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	if a.IsBoolean() && b.IsBoolean() {
		switch op {
		case XAndB:
			return value.Bool(a.AsBoolean() && b.AsBoolean()), nil
		case XOrB:
			return value.Bool(a.AsBoolean() || b.AsBoolean()), nil
		default:
			return value.Bool(a.AsBoolean() != b.AsBoolean()), nil
		}
	}
	if a.IsInteger() && b.IsInteger() {
		x, y := a.AsInteger(), b.AsInteger()
		switch op {
		case XAndB:
			return value.Int(x & y), nil
		case XOrB:
			return value.Int(x | y), nil
		default:
			return value.Int(x ^ y), nil
		}
	}
	if a.IsString() && b.IsString() {
		return stringBitwise(op, a.AsBytes(), b.AsBytes()), nil
	}
	return value.Null, exception.Newf(exception.TypeMismatch, "bitwise operator requires booleans, integers, or strings")
}

// stringBitwise implements §4.9's bytewise string bitwise rule: & and
// and truncates to the shorter operand's length; | and ^ extend by
// appending the longer operand's tail.
func stringBitwise(op XOp, a, b []byte) value.Value {
	short, long := a, b
	if len(b) < len(a) {
		short, long = b, a
	}
	out := make([]byte, len(short))
	for i := range short {
		switch op {
		case XAndB:
			out[i] = a[i] & b[i]
		case XOrB:
			out[i] = a[i] | b[i]
		default:
			out[i] = a[i] ^ b[i]
		}
	}
	if op == XAndB {
		return value.Bytes(out)
	}
	out = append(out, long[len(short):]...)
	return value.Bytes(out)
}

func wrapping(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	if !a.IsInteger() || !b.IsInteger() {
		return value.Null, exception.Newf(exception.TypeMismatch, "wrapping arithmetic requires integers")
	}
	x, y := uint64(a.AsInteger()), uint64(b.AsInteger())
	switch op {
	case XAddM:
		return value.Int(int64(x + y)), nil
	case XSubM:
		return value.Int(int64(x - y)), nil
	default:
		return value.Int(int64(x * y)), nil
	}
}

func saturating(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	if a.IsInteger() && b.IsInteger() {
		x, y := a.AsInteger(), b.AsInteger()
		switch op {
		case XAddS:
			r := x + y
			if (y > 0 && r < x) || (y < 0 && r > x) {
				return value.Int(saturateSign(x, y)), nil
			}
			return value.Int(r), nil
		case XSubS:
			r := x - y
			if (y < 0 && r < x) || (y > 0 && r > x) {
				return value.Int(saturateSign(x, -y)), nil
			}
			return value.Int(r), nil
		default:
			if x == 0 || y == 0 {
				return value.Int(0), nil
			}
			r := x * y
			if r/y != x {
				sameSign := (x > 0) == (y > 0)
				if sameSign {
					return value.Int(math.MaxInt64), nil
				}
				return value.Int(math.MinInt64), nil
			}
			return value.Int(r), nil
		}
	}
	return arith(mapSaturatingToArith(op), a, b)
}

func mapSaturatingToArith(op XOp) XOp {
	switch op {
	case XAddS:
		return XAdd
	case XSubS:
		return XSub
	default:
		return XMul
	}
}

func saturateSign(x, y int64) int64 {
	if x > 0 {
		return math.MaxInt64
	}
	return math.MinInt64
}

func subscr(a, idx value.Value) (value.Value, *exception.Error) {
	switch {
	case a.IsArray() && idx.IsInteger():
		arr := a.AsArray()
		i := idx.AsInteger()
		if i < 0 {
			i += int64(arr.Len())
		}
		if i < 0 || i >= int64(arr.Len()) {
			return value.Null, nil
		}
		return arr.Get(int(i)), nil
	case a.IsObject() && idx.IsString():
		v, _ := a.AsObject().Get(idx.AsString())
		return v, nil
	default:
		return value.Null, exception.Newf(exception.TypeMismatch, "subscript not defined for %s[%s]", a.TypeOf(), idx.TypeOf())
	}
}

func compareOp(op XOp, a, b value.Value) (value.Value, *exception.Error) {
	ord := value.Compare(a, b)
	unordered := ord == value.Unordered
	if op == XCmpUn {
		return value.Bool(unordered), nil
	}
	if op == XCmp3Way {
		if unordered {
			return value.Str("[unordered]"), nil
		}
		// Less=0, Equal=1, Greater=2 internally; report the -1/0/+1
		// spec.md's cmp_3way names.
		switch ord {
		case value.Less:
			return value.Int(-1), nil
		case value.Greater:
			return value.Int(1), nil
		default:
			return value.Int(0), nil
		}
	}
	if unordered {
		if op == XCmpNe {
			return value.Bool(true), nil
		}
		return value.Bool(false), nil
	}
	switch op {
	case XCmpEq:
		return value.Bool(ord == value.Equal), nil
	case XCmpNe:
		return value.Bool(ord != value.Equal), nil
	case XCmpLt:
		return value.Bool(ord == value.Less), nil
	case XCmpGt:
		return value.Bool(ord == value.Greater), nil
	case XCmpLte:
		return value.Bool(ord != value.Greater), nil
	default: // XCmpGte
		return value.Bool(ord != value.Less), nil
	}
}

func bitsLeadingZeros(u uint64) int {
	n := 0
	for i := 63; i >= 0; i-- {
		if u&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func bitsTrailingZeros(u uint64) int {
	if u == 0 {
		return 64
	}
	n := 0
	for u&1 == 0 {
		u >>= 1
		n++
	}
	return n
}

func bitsOnesCount(u uint64) int {
	n := 0
	for u != 0 {
		n += int(u & 1)
		u >>= 1
	}
	return n
}
