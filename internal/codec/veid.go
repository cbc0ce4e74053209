package codec

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// maxZeroStrips bounds leading-zero trimming so malformed input cannot loop.
const maxZeroStrips = 100

// AddressToVeID decodes the ve-NFT id packed into the low bytes of an
// address-shaped value and returns it as a decimal string.
func AddressToVeID(addr common.Address) string {
	return HexToVeID(addr.Hex())
}

// HexToVeID is AddressToVeID for an already hex-encoded value.
func HexToVeID(input string) string {
	hex := strings.ToLower(strings.TrimSpace(input))
	hex = strings.TrimPrefix(hex, "0x")

	for i := 0; i < maxZeroStrips; i++ {
		if !strings.HasPrefix(hex, "0") {
			break
		}
		hex = hex[1:]
	}
	if hex == "" {
		return "0"
	}
	if len(hex)%2 != 0 {
		hex = "0" + hex
	}

	value, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return "0"
	}
	return value.String()
}
