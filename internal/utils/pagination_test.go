package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 20, 20},
		{"3", 1, 3},
		{"-2", 1, -2},  // bounds are the caller's job
		{"007", 20, 7}, // leading zeros parse fine
		{"abc", 20, 20},
		{" 3", 20, 20}, // no trimming, by contract with strconv.Atoi
		{"99999999999999999999", 20, 20},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d, want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	cases := []struct {
		n, lo, hi, want int
	}{
		{0, 1, 100, 1},
		{-50, 1, 100, 1},
		{250, 1, 100, 100},
		{20, 1, 100, 20},
		{1, 1, 100, 1},
		{100, 1, 100, 100},
	}
	for _, tc := range cases {
		if got := ClampInt(tc.n, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("ClampInt(%d, %d, %d) = %d, want %d", tc.n, tc.lo, tc.hi, got, tc.want)
		}
	}
}
