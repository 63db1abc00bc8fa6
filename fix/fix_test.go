package fix

import (
	"math"
	"testing"
)

func TestS1516MulMatchesRealArithmetic(t *testing.T) {
	cases := [][2]float64{
		{1.0, 1.0},
		{0.5, 0.5},
		{2.25, -1.5},
		{-3.125, -0.25},
		{440.0, 1.05},
		{0.0001, 0.0001},
		{123.456, -7.89},
	}
	for _, c := range cases {
		a := S1516FromFloat(c[0])
		b := S1516FromFloat(c[1])
		got := a.Mul(b).Float()
		want := a.Float() * b.Float()
		// Exact multiply truncates once, so the result is within one unit
		// of least precision of the real product.
		if math.Abs(got-want) > 1.0/65536 {
			t.Fatalf("Mul(%v, %v) = %v, want %v", c[0], c[1], got, want)
		}
	}
}

func TestU1616MulMatchesRealArithmetic(t *testing.T) {
	cases := [][2]float64{
		{1.0, 1.0},
		{5.0, 0.9},
		{0.125, 0.125},
		{440.0, 1.05},
		{65535.0, 0.5},
	}
	for _, c := range cases {
		a := U1616FromFloat(c[0])
		b := U1616FromFloat(c[1])
		got := a.Mul(b).Float()
		want := a.Float() * b.Float()
		if math.Abs(got-want) > 1.0/65536 {
			t.Fatalf("Mul(%v, %v) = %v, want %v", c[0], c[1], got, want)
		}
	}
}

func TestS78MulMatchesRealArithmetic(t *testing.T) {
	for a := -120.0; a <= 120.0; a += 7.3 {
		for b := -1.0; b <= 1.0; b += 0.11 {
			fa := S78FromFloat(a)
			fb := S78FromFloat(b)
			got := fa.Mul(fb).Float()
			want := fa.Float() * fb.Float()
			if math.Abs(got-want) > 1.0/256 {
				t.Fatalf("Mul(%v, %v) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestFastMulErrorIsBounded(t *testing.T) {
	cases := [][2]float64{
		{440.0, 1.05},
		{20000.0, 0.25},
		{1.0, 1.0},
		{300.5, 0.111},
	}
	for _, c := range cases {
		a := U1616FromFloat(c[0])
		b := U1616FromFloat(c[1])
		exact := a.Mul(b).Float()
		fast := a.FastMul(b).Float()
		// Documented bound: discarding 8 low bits of each operand loses at
		// most (|a|+|b|)*2^-8 of the product.
		bound := (a.Float() + b.Float()) / 256
		if math.Abs(fast-exact) > bound {
			t.Fatalf("FastMul(%v, %v): error %v exceeds bound %v",
				c[0], c[1], math.Abs(fast-exact), bound)
		}
	}
}

func TestFastMulSignedErrorIsBounded(t *testing.T) {
	cases := [][2]float64{
		{-1143.0, 0.1111},
		{127.0, 0.5},
		{-127.0, 0.992},
	}
	for _, c := range cases {
		a := S1516FromFloat(c[0])
		b := S1516FromFloat(c[1])
		exact := a.Mul(b).Float()
		fast := a.FastMul(b).Float()
		bound := (math.Abs(a.Float())+math.Abs(b.Float()))/256 + 1.0/65536
		if math.Abs(fast-exact) > bound {
			t.Fatalf("FastMul(%v, %v): error %v exceeds bound %v",
				c[0], c[1], math.Abs(fast-exact), bound)
		}
	}
}

func TestOneIsMultiplicativeIdentity(t *testing.T) {
	if got := S1516FromFloat(12.75).Mul(OneS1516); got != S1516FromFloat(12.75) {
		t.Fatalf("1.0 * 12.75 = %v", got.Float())
	}
	if got := U1616FromFloat(5.0).Mul(OneU1616); got != U1616FromFloat(5.0) {
		t.Fatalf("1.0 * 5.0 = %v", got.Float())
	}
	if got := S78(-300).Mul(OneS78); got != -300 {
		t.Fatalf("1.0 * x = %v, want %v", got, -300)
	}
}

func TestMulWrapsPerNativeWidth(t *testing.T) {
	// 256.0 * 256.0 does not fit in S1516; the defined behavior is native
	// wraparound of the shifted 64-bit product, not saturation.
	a := S1516FromFloat(256.0)
	// 256*256 = 65536 = 2^32 in S1516 representation, which wraps to 0 in
	// the 32-bit result.
	if got := a.Mul(a); got != 0 {
		t.Fatalf("overflowing Mul = %d, want wrapped 0", got)
	}
}
