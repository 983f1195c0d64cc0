package royalty

import (
	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
)

// ConfigDiscriminator tags stored royalty configurations.
var ConfigDiscriminator = program.NewDiscriminator("RoyaltyConfig")

// recipientSize is the encoded size of one Recipient.
const recipientSize = 32 + 2 + 1

// ConfigSize is the stored size of a configuration with n recipients.
func ConfigSize(n int) int {
	return program.DiscriminatorSize + 32 + 2 + 4 + n*recipientSize + 32 + 1 + 1
}

// Config is the royalty configuration of one asset mint. Field order is
// the stored layout.
type Config struct {
	Mint             solana.PublicKey
	TotalBasisPoints uint16
	Recipients       []Recipient
	Authority        solana.PublicKey
	IsMutable        bool
	Bump             uint8
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	return Validate(c.TotalBasisPoints, c.Recipients)
}

// Encode returns the stored form of c.
func (c Config) Encode() ([]byte, error) {
	return program.EncodeRecord(ConfigDiscriminator, &c)
}

// DecodeConfig parses a stored configuration.
func DecodeConfig(data []byte) (Config, error) {
	var c Config
	if err := program.DecodeRecord(ConfigDiscriminator, data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
