package registrar

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestFeeSchedule_TooShort(t *testing.T) {
	f := NewFeeSchedule(uint256.NewInt(100), 3)
	if _, err := f.Price("ab"); err != ErrNameTooShort {
		t.Errorf("expected ErrNameTooShort, got %v", err)
	}
	if _, err := f.Price(""); err != ErrNameTooShort {
		t.Errorf("expected ErrNameTooShort for empty name, got %v", err)
	}
}

func TestFeeSchedule_PriceByLength(t *testing.T) {
	f := NewFeeSchedule(uint256.NewInt(100), 3)
	price, err := f.Price("test")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Eq(uint256.NewInt(400)) {
		t.Errorf("price(test) = %s, want 400", price)
	}
}

func TestFeeSchedule_MinimumLengthBoundary(t *testing.T) {
	f := NewFeeSchedule(uint256.NewInt(100), 3)
	price, err := f.Price("abc")
	if err != nil {
		t.Fatalf("three code points should be registrable: %v", err)
	}
	if !price.Eq(uint256.NewInt(300)) {
		t.Errorf("price(abc) = %s, want 300", price)
	}
}

func TestFeeSchedule_CodePointPricing(t *testing.T) {
	f := NewFeeSchedule(uint256.NewInt(100), 3)
	// Three multi-byte characters count as three units, not nine bytes.
	price, err := f.Price("日本語")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Eq(uint256.NewInt(300)) {
		t.Errorf("price(日本語) = %s, want 300", price)
	}
}

func TestFeeSchedule_Monotonic(t *testing.T) {
	f := NewFeeSchedule(uint256.NewInt(7), 1)
	prev := new(uint256.Int)
	name := ""
	for i := 0; i < 16; i++ {
		name += "x"
		price, err := f.Price(name)
		if err != nil {
			t.Fatalf("price(%q): %v", name, err)
		}
		if price.Lt(prev) {
			t.Fatalf("price must be non-decreasing in length: %s < %s at len %d", price, prev, i+1)
		}
		prev = price
	}
}

func TestFeeSchedule_Overflow(t *testing.T) {
	perChar := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1)) // 2^256 - 1
	f := NewFeeSchedule(perChar, 1)
	if _, err := f.Price("ab"); err != ErrPriceOverflow {
		t.Errorf("expected ErrPriceOverflow, got %v", err)
	}
}

func TestFeeSchedule_ImmutableRate(t *testing.T) {
	rate := uint256.NewInt(100)
	f := NewFeeSchedule(rate, 3)
	rate.SetUint64(1) // caller mutating its copy must not affect the schedule

	price, err := f.Price("abc")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Eq(uint256.NewInt(300)) {
		t.Errorf("schedule rate leaked: price = %s, want 300", price)
	}
}
