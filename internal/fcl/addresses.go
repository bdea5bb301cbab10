package fcl

import (
	"regexp"
	"strings"
	"sync"

	"github.com/onflow/flow-go-sdk"
)

const (
	ChainMainnet  = "mainnet"
	ChainTestnet  = "testnet"
	ChainEmulator = "emulator"
)

var defaultContracts = map[string]map[string]string{
	ChainEmulator: {
		"FungibleToken": "0xee82856bf20e2aa6",
		"FlowToken":     "0x0ae53cb6e3f42a79",
		"FlowFees":      "0xe5a8b7f23e8b548f",
	},
	ChainTestnet: {
		"FungibleToken":      "0x9a0766d93b6608b7",
		"FlowToken":          "0x7e60df042a9c0868",
		"FlowFees":           "0x912d5440f7e3769e",
		"FlowIDTableStaking": "0x9eca2b38b18b5dfe",
		"LockedTokens":       "0x95e019a17d0e23d7",
		"StakingProxy":       "0x7aad92e5a0715d21",
		"NonFungibleToken":   "0x631e88ae7f1d7c20",
	},
	ChainMainnet: {
		"FungibleToken":      "0xf233dcee88fe0abe",
		"FlowToken":          "0x1654653399040a61",
		"FlowFees":           "0xf919ee77447b7497",
		"FlowIDTableStaking": "0x8624b52f9ddcd04a",
		"LockedTokens":       "0x8d0e87b65159ae63",
		"StakingProxy":       "0x62430cf28c26d095",
		"NonFungibleToken":   "0x1d7e57aa55817448",
	},
}

var placeholder = regexp.MustCompile(`0x([A-Za-z_][A-Za-z0-9_]*)`)

// AddressRegistry maps contract names to their deployment address on one
// chain. Scripts refer to contracts as 0xName.
type AddressRegistry struct {
	mu        sync.RWMutex
	contracts map[string]flow.Address
}

// NewAddressRegistry starts with the core contracts of chain. An unknown
// chain starts empty.
func NewAddressRegistry(chain string) *AddressRegistry {
	r := &AddressRegistry{contracts: map[string]flow.Address{}}
	for name, address := range defaultContracts[chain] {
		r.Register(name, address)
	}
	return r
}

func (r *AddressRegistry) Register(contract, address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[contract] = flow.HexToAddress(address)
}

func (r *AddressRegistry) AddressOf(contract string) (flow.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	address, ok := r.contracts[contract]
	return address, ok
}

// ProcessScript replaces every registered 0xName placeholder in script.
// Hex addresses and unknown names are left alone.
func (r *AddressRegistry) ProcessScript(script string) string {
	return placeholder.ReplaceAllStringFunc(script, func(match string) string {
		address, ok := r.AddressOf(strings.TrimPrefix(match, "0x"))
		if !ok {
			return match
		}
		return "0x" + address.Hex()
	})
}
