package mining

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ChainParams maps a configured network name to its parameters.
// Unknown names are rejected.
func ChainParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet", "", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest", "regressiontest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("mining: unknown network %q", network)
	}
}

// ValidateAddress checks that addr decodes as a payout address on params.
func ValidateAddress(addr string, params *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return fmt.Errorf("mining: decode address %q: %w", addr, err)
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf("mining: address %q is not for %s", addr, params.Name)
	}
	return nil
}
