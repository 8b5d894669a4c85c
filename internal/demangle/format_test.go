package demangle

import (
	"math"
	"strings"
	"testing"
)

func TestFormatNum(t *testing.T) {
	cases := []struct {
		num  uint64
		neg  bool
		want string
	}{
		{0, false, "0"},
		{0, true, "0"},
		{7, false, "7"},
		{9, false, "9"},
		{10, false, "10"},
		{99, false, "99"},
		{100, true, "-100"},
		{999999999999999999, false, "999999999999999999"},
		{1000000000000000000, false, "1000000000000000000"},
		{9999999999999999999, false, "9999999999999999999"},
		{10000000000000000000, false, "10000000000000000000"},
		{math.MaxUint64, true, "-18446744073709551615"},
	}

	for _, tc := range cases {
		var b strings.Builder
		formatNum(&b, tc.num, tc.neg)
		if b.String() != tc.want {
			t.Errorf("formatNum(%d, %v) = %q, want %q", tc.num, tc.neg, b.String(), tc.want)
		}
	}
}

func TestLifetimeLetter(t *testing.T) {
	cases := []struct {
		lt   Lifetime
		want string
	}{
		{0, "'_"},
		{1, "'a"},
		{26, "'z"},
		{27, "'A"},
		{52, "'Z"},
		{53, "'_"},
	}
	for _, tc := range cases {
		var b strings.Builder
		formatLifetime(&b, tc.lt)
		if b.String() != tc.want {
			t.Errorf("formatLifetime(%d) = %q, want %q", tc.lt, b.String(), tc.want)
		}
	}
}

func TestDisplayEmptyPath(t *testing.T) {
	// A stray terminator where a path is expected yields an empty slot.
	sym, err := Parse("_RNvE1f")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := sym.Display(); got != "::f" {
		t.Fatalf("Display() = %q, want %q", got, "::f")
	}
	if sym.Node(1).Kind() != NodeKindEmpty {
		t.Fatalf("Node(1).Kind() = %v, want %v", sym.Node(1).Kind(), NodeKindEmpty)
	}
}

func TestDemangleBlob(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "call _RNvC8rustdump6decode", want: "call rustdump::decode"},
		{in: "bl __RNvMNtCs9ltgdHTiPiY_4core5sliceSRe4iterCslWKjbRFJPpS_3log ; tail", want: "bl <[&str]>::iter ; tail"},
		{in: "_RC1a, _RC1b", want: "a, b"},
		{in: "jmp _ZN3foo3barE", want: "jmp _ZN3foo3barE"},
		{in: "mov x0, _RQQ", want: "mov x0, _RQQ"},
		{in: "no symbols here", want: "no symbols here"},
		{in: "load_RC5value", want: "load_RC5value"},
		{in: "MY_RC1x", want: "MY_RC1x"},
		{in: "a.__RC1x $_RC1y", want: "a.__RC1x $_RC1y"},
		{in: "(_RC1a)+[__RC1b]", want: "(a)+[b]"},
		{in: "_RC1a\t_RC1b", want: "a\tb"},
	}
	for _, tc := range cases {
		if got := DemangleBlob(tc.in); got != tc.want {
			t.Errorf("DemangleBlob(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
