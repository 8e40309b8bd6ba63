package registrar

import "github.com/holiman/uint256"

const (
	// DefaultCommitValidity is how long a commitment stays revealable (24h).
	DefaultCommitValidity uint64 = 86_400

	// DefaultRegistrationDuration is the ownership window bought by one
	// registration or renewal payment (365 days).
	DefaultRegistrationDuration uint64 = 31_536_000

	// DefaultMinNameLength is the shortest registrable name, in code points.
	DefaultMinNameLength = 3
)

// DefaultPricePerChar is 0.001 ether per code point, in wei.
var DefaultPricePerChar = uint256.NewInt(1_000_000_000_000_000)

// Config holds the protocol's fee parameters. They are fixed when the
// controller is constructed and immutable afterward.
type Config struct {
	// CommitValidity is the reveal window for a commitment, in seconds.
	CommitValidity uint64

	// RegistrationDuration is the ownership window per payment, in seconds.
	RegistrationDuration uint64

	// PricePerChar is the registration price per code point, in wei.
	PricePerChar *uint256.Int

	// MinNameLength is the minimum name length, in code points.
	MinNameLength int
}

// DefaultConfig returns the default protocol parameters.
func DefaultConfig() Config {
	return Config{
		CommitValidity:       DefaultCommitValidity,
		RegistrationDuration: DefaultRegistrationDuration,
		PricePerChar:         new(uint256.Int).Set(DefaultPricePerChar),
		MinNameLength:        DefaultMinNameLength,
	}
}
