package token

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Authority is the proof of control presented to move or close token
// accounts. The zero value authorizes nothing.
type Authority struct {
	address types.Address
	program types.Address
}

// SignedBy returns the authority of an address whose signature was
// already verified by the caller.
func SignedBy(addr types.Address) Authority {
	return Authority{address: addr}
}

// ProgramSigner returns the authority of the program-derived address of
// (seeds, program). seeds must end with the bump; the address is
// re-derived, so only the seeds that produced it can sign for it.
func ProgramSigner(program types.Address, seeds ...[]byte) (Authority, error) {
	addr, err := crypto.CreateProgramAddress(seeds, program)
	if err != nil {
		return Authority{}, fmt.Errorf("program signer: %w", err)
	}
	return Authority{address: addr, program: program}, nil
}

// Address returns the address this authority speaks for.
func (a Authority) Address() types.Address {
	return a.address
}

// IsProgram reports whether the authority is a program-derived signer.
func (a Authority) IsProgram() bool {
	return !a.program.IsZero()
}

func (a Authority) authorizes(addr types.Address) bool {
	return !a.address.IsZero() && a.address == addr
}
