package air

import (
	"testing"

	"github.com/asteria-lang/asteria/internal/value"
)

func TestUnaryArithmeticAndBitOps(t *testing.T) {
	v, err := UnaryOp(XNeg, value.Int(5))
	if err != nil || v.AsInteger() != -5 {
		t.Fatalf("neg(5) = %v, %v", v, err)
	}
	v, err = UnaryOp(XAbs, value.Int(-7))
	if err != nil || v.AsInteger() != 7 {
		t.Fatalf("abs(-7) = %v, %v", v, err)
	}
	v, err = UnaryOp(XPopcnt, value.Int(7))
	if err != nil || v.AsInteger() != 3 {
		t.Fatalf("popcnt(7) = %v, %v", v, err)
	}
	v, err = UnaryOp(XNotL, value.Bool(false))
	if err != nil || !v.AsBoolean() {
		t.Fatalf("not(false) = %v, %v", v, err)
	}
}

func TestBinaryArithOverflowIsRuntimeError(t *testing.T) {
	_, err := BinaryOp(XAdd, value.Int(9223372036854775807), value.Int(1))
	if err == nil {
		t.Fatalf("expected an arithmetic_overflow error on checked add overflow")
	}
}

func TestWrappingAddWraps(t *testing.T) {
	v, err := BinaryOp(XAddM, value.Int(9223372036854775807), value.Int(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsInteger() != -9223372036854775808 {
		t.Fatalf("wrapping add should wrap around, got %d", v.AsInteger())
	}
}

func TestSaturatingAddClampsToMax(t *testing.T) {
	v, err := BinaryOp(XAddS, value.Int(9223372036854775807), value.Int(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsInteger() != 9223372036854775807 {
		t.Fatalf("saturating add should clamp to max int64, got %d", v.AsInteger())
	}
}

func TestStringConcatAndRepeat(t *testing.T) {
	v, err := BinaryOp(XAdd, value.Str("foo"), value.Str("bar"))
	if err != nil || v.AsString() != "foobar" {
		t.Fatalf("string add = %v, %v", v, err)
	}
	v, err = BinaryOp(XMul, value.Str("ab"), value.Int(3))
	if err != nil || v.AsString() != "ababab" {
		t.Fatalf("string repeat = %v, %v", v, err)
	}
}

func TestComparisonAndThreeWay(t *testing.T) {
	v, err := BinaryOp(XCmpLt, value.Int(1), value.Int(2))
	if err != nil || !v.AsBoolean() {
		t.Fatalf("1 < 2 should be true, got %v, %v", v, err)
	}
	v, err = BinaryOp(XCmp3Way, value.Int(5), value.Int(2))
	if err != nil || v.AsInteger() != 1 {
		t.Fatalf("cmp_3way(5, 2) = %v, %v, want 1", v, err)
	}
	v, err = BinaryOp(XCmpUn, value.Real(0), value.Str("x"))
	if err != nil || !v.AsBoolean() {
		t.Fatalf("cmp_un across incompatible types should be true, got %v, %v", v, err)
	}
}

func TestShiftAndBitwise(t *testing.T) {
	v, err := BinaryOp(XSll, value.Int(1), value.Int(4))
	if err != nil || v.AsInteger() != 16 {
		t.Fatalf("1 << 4 = %v, %v", v, err)
	}
	v, err = BinaryOp(XAndB, value.Int(0b1100), value.Int(0b1010))
	if err != nil || v.AsInteger() != 0b1000 {
		t.Fatalf("bitwise and = %v, %v", v, err)
	}
}

func TestHeadTailOfArray(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	v, err := UnaryOp(XHead, arr)
	if err != nil || v.AsInteger() != 1 {
		t.Fatalf("head = %v, %v", v, err)
	}
	v, err = UnaryOp(XTail, arr)
	if err != nil || v.AsInteger() != 3 {
		t.Fatalf("tail = %v, %v", v, err)
	}
}

func TestRandomElementPicksFromArray(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(10), value.Int(20), value.Int(30)})
	v, err := RandomElement(arr, fixedPRNGOp{n: 1})
	if err != nil || v.AsInteger() != 20 {
		t.Fatalf("random element with fixed prng(1) = %v, %v, want 20", v, err)
	}
}

type fixedPRNGOp struct{ n int }

func (p fixedPRNGOp) Intn(n int) int { return p.n % n }
