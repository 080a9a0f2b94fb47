package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1.a", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseNonNegativeCents(t *testing.T) {
	got, err := ParseNonNegativeCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	if _, err := ParseNonNegativeCents("-3"); err != ErrNegativeAmount {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if !IsValidationError(ErrNegativeAmount) {
		t.Fatalf("sentinel should be a validation error")
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100", 10000},
		{"33.335", 3334},
		{"33.334", 3333},
		{"0.005", 1},
		{"-0.005", -1},
		{"0.0004", 0},
		{"1e-20000000", 0},
		{"92233720368547758.07", 9223372036854775807},
	}
	for _, tc := range cases {
		m, err := MoneyFromDecimal(decimal.RequireFromString(tc.in))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if m.Cents != tc.want {
			t.Fatalf("%s: expected %d cents, got %d", tc.in, tc.want, m.Cents)
		}
	}

	if got := Cents(3334).String(); got != "33.34" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := Cents(-5).String(); got != "-0.05" {
		t.Fatalf("unexpected string %q", got)
	}
	for _, in := range []string{"1e30", "1e20000000", "-92233720368547758.09"} {
		if _, err := MoneyFromDecimal(decimal.RequireFromString(in)); !IsValidationError(err) {
			t.Fatalf("%s: expected out of range error, got %v", in, err)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := Cents(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Cents(0).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}
