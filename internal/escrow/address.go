package escrow

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// ProgramID is the address of the escrow program.
var ProgramID = crypto.ProgramID("escrow")

var recordSeedPrefix = []byte("escrow")

func recordSeeds(owner types.Address, seed uint64) [][]byte {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], seed)
	return [][]byte{recordSeedPrefix, owner[:], le[:]}
}

// RecordAddress derives the record address for (owner, seed) and its bump.
func RecordAddress(owner types.Address, seed uint64) (types.Address, uint8, error) {
	addr, bump, err := crypto.FindProgramAddress(recordSeeds(owner, seed), ProgramID)
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("derive escrow address: %w", err)
	}
	return addr, bump, nil
}

// VaultAddress derives the vault of a record: the associated token account
// of the record address for the offered mint.
func VaultAddress(record, mintOffered, tokenProgram types.Address) (types.Address, error) {
	return token.AssociatedAddress(record, mintOffered, tokenProgram)
}

// Addresses bundles the derived addresses of an escrow.
type Addresses struct {
	Escrow types.Address `json:"escrow"`
	Bump   uint8         `json:"bump"`
	Vault  types.Address `json:"vault"`
}

// DeriveAddresses derives the record and vault addresses for an escrow
// offering mintOffered under tokenProgram.
func DeriveAddresses(owner types.Address, seed uint64, mintOffered, tokenProgram types.Address) (Addresses, error) {
	rec, bump, err := RecordAddress(owner, seed)
	if err != nil {
		return Addresses{}, err
	}
	vault, err := VaultAddress(rec, mintOffered, tokenProgram)
	if err != nil {
		return Addresses{}, err
	}
	return Addresses{Escrow: rec, Bump: bump, Vault: vault}, nil
}
