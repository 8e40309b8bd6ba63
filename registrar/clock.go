package registrar

import "time"

// Clock supplies the ledger timestamp, in unix seconds. All components of
// the protocol share one clock, standing in for the block timestamp. The
// timestamp may be skewed within small bounds by whoever produces it, so
// every window comparison in this package uses >= / <= rather than strict
// inequalities.
type Clock interface {
	Now() uint64
}

// WallClock is the production Clock backed by the system time.
type WallClock struct{}

// Now returns the current unix time in seconds.
func (WallClock) Now() uint64 {
	return uint64(time.Now().Unix())
}
