package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"2500", 2500, true},
		{"0", 0, true},
		{" 6000 ", 6000, true},
		{"6,000", 6000, true},
		{"1,50,000", 150000, true},
		{"₹6,000", 6000, true},
		{"Rs 1200", 1200, true},
		{"Rs.1200", 1200, true},
		{"2500.00", 2500, true},
		{"2500.50", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{".5", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatRupees(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "₹0"},
		{600, "₹600"},
		{6000, "₹6,000"},
		{150000, "₹1,50,000"},
		{3900000, "₹39,00,000"},
		{-2500, "-₹2,500"},
	}
	for _, tc := range cases {
		if got := FormatRupees(tc.in); got != tc.want {
			t.Errorf("FormatRupees(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
