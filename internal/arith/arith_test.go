package arith

import "testing"

func TestExtendedGCD(t *testing.T) {
	cases := []struct{ a, b, g int64 }{
		{12, 8, 4},
		{17, 5, 1},
		{9, 0, 9},
		{0, 9, 9},
	}
	for _, c := range cases {
		g, x, y := ExtendedGCD(c.a, c.b)
		if g != c.g {
			t.Fatalf("ExtendedGCD(%d,%d) gcd = %d, want %d", c.a, c.b, g, c.g)
		}
		if got := c.a*x + c.b*y; got != g {
			t.Fatalf("ExtendedGCD(%d,%d): %d*%d + %d*%d = %d, want %d", c.a, c.b, c.a, x, c.b, y, got, g)
		}
	}
}

func TestIsCoprime(t *testing.T) {
	if !IsCoprime(4, 9) {
		t.Fatal("4 and 9 should be coprime")
	}
	if IsCoprime(4, 8) {
		t.Fatal("4 and 8 share a factor of 4")
	}
	if IsCoprime(0, 5) || IsCoprime(5, 0) {
		t.Fatal("zero is never coprime")
	}
}

func TestMulInverse(t *testing.T) {
	r := MulInverse(3, 11)
	if (3*r)%11 != 1 {
		t.Fatalf("MulInverse(3, 11) = %d, not a valid inverse", r)
	}
	if r <= 0 || r >= 11 {
		t.Fatalf("MulInverse(3, 11) = %d, out of range", r)
	}
}

func TestMulInverseNonCoprimePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-coprime MulInverse")
		}
	}()
	MulInverse(4, 8)
}

func TestNextPrime(t *testing.T) {
	cases := map[int64]int64{
		1:  2,
		2:  2,
		3:  3,
		8:  11,
		20: 23,
		97: 97,
	}
	for in, want := range cases {
		if got := NextPrime(in); got != want {
			t.Errorf("NextPrime(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNthLargest(t *testing.T) {
	seq := []int{5, 1, 9, 3, 7}
	if got := NthLargest(seq, 0); got != 9 {
		t.Fatalf("rank 0 = %d, want 9", got)
	}
	if got := NthLargest(seq, 4); got != 1 {
		t.Fatalf("rank 4 = %d, want 1", got)
	}
	// original slice must be untouched
	want := []int{5, 1, 9, 3, 7}
	for i := range seq {
		if seq[i] != want[i] {
			t.Fatalf("NthLargest mutated its input slice")
		}
	}
}

func TestIncrementMap(t *testing.T) {
	m := make(map[int64]int64)
	IncrementMap(m, 7)
	IncrementMap(m, 7)
	IncrementMap(m, 2)
	if m[7] != 2 || m[2] != 1 {
		t.Fatalf("unexpected map contents: %v", m)
	}
}
