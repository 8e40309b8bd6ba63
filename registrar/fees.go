package registrar

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrNameTooShort  = errors.New("fees: name below minimum length")
	ErrPriceOverflow = errors.New("fees: price computation overflows")
)

// FeeSchedule maps a name to its registration price. The price is a
// deterministic function of name length only: length (in code points) times
// a fixed per-character rate. There is no auction or demand component.
type FeeSchedule struct {
	pricePerChar  *uint256.Int
	minNameLength int
}

// NewFeeSchedule creates a fee schedule with the given per-code-point price
// and minimum name length. Both are fixed for the life of the schedule.
func NewFeeSchedule(pricePerChar *uint256.Int, minNameLength int) *FeeSchedule {
	return &FeeSchedule{
		pricePerChar:  new(uint256.Int).Set(pricePerChar),
		minNameLength: minNameLength,
	}
}

// Price returns the registration price for name. It fails with
// ErrNameTooShort below the minimum length and with ErrPriceOverflow if the
// multiplication would wrap.
func (f *FeeSchedule) Price(name string) (*uint256.Int, error) {
	n := NameLength(name)
	if n < f.minNameLength {
		return nil, ErrNameTooShort
	}
	price, overflow := new(uint256.Int).MulOverflow(f.pricePerChar, uint256.NewInt(uint64(n)))
	if overflow {
		return nil, ErrPriceOverflow
	}
	return price, nil
}

// PricePerChar returns a copy of the per-code-point rate.
func (f *FeeSchedule) PricePerChar() *uint256.Int {
	return new(uint256.Int).Set(f.pricePerChar)
}

// MinNameLength returns the minimum registrable name length.
func (f *FeeSchedule) MinNameLength() int {
	return f.minNameLength
}
