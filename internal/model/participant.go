package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role restricts which actions a participant may take during a run.
type Role string

const (
	RoleLiquidityProvider Role = "liquidity_provider"
	RoleTrader            Role = "trader"
	RoleArbitrageur       Role = "arbitrageur"
)

// Participant is an account taking part in a simulation.
type Participant struct {
	Name    string         `json:"name"`
	Address common.Address `json:"address"`
	Role    Role           `json:"role"`
}

// NewParticipant derives a stable address from the participant name.
func NewParticipant(name string, role Role) Participant {
	return Participant{
		Name:    name,
		Address: AddressFor(name),
		Role:    role,
	}
}

// AddressFor returns the address handle used for a named account.
func AddressFor(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(name)))
}

// ShortAddress returns the first six hex characters of an address, 0x included.
func ShortAddress(addr common.Address) string {
	return addr.Hex()[:6]
}
