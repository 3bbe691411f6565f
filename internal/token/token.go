// Package token implements the token programs: mints and the token
// accounts that hold balances of them.
//
// Two programs share the same account layout: the classic program and the
// extended program. A mint belongs to exactly one of them and every token
// account of that mint belongs to the same program. Custody is expressed by
// the account's Authority, which is either a key-pair address or a
// program-derived address that only its program can sign for.
package token

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Program IDs.
var (
	ClassicProgramID    = crypto.ProgramID("token")
	ExtendedProgramID   = crypto.ProgramID("token-extended")
	AssociatedProgramID = crypto.ProgramID("associated-token")
)

// IsTokenProgram reports whether id is one of the token programs.
func IsTokenProgram(id types.Address) bool {
	return id == ClassicProgramID || id == ExtendedProgramID
}

// ProgramName returns a short name for a token program ID.
func ProgramName(id types.Address) string {
	switch id {
	case ClassicProgramID:
		return "classic"
	case ExtendedProgramID:
		return "extended"
	default:
		return id.String()
	}
}

// ParseProgram maps "classic" or "extended" to a program ID.
func ParseProgram(name string) (types.Address, error) {
	switch name {
	case "", "classic":
		return ClassicProgramID, nil
	case "extended":
		return ExtendedProgramID, nil
	default:
		return types.Address{}, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
}

// Account data tags.
const (
	kindMint    byte = 1
	kindAccount byte = 2
)

// Mint describes a token type.
type Mint struct {
	Address   types.Address `json:"address"`
	Program   types.Address `json:"program"`
	Authority types.Address `json:"authority"`
	Supply    uint64        `json:"supply"`
	Decimals  uint8         `json:"decimals"`
	Name      string        `json:"name"`
	Symbol    string        `json:"symbol"`
}

// Account holds a balance of one mint on behalf of Authority.
type Account struct {
	Address   types.Address `json:"address"`
	Program   types.Address `json:"program"`
	Mint      types.Address `json:"mint"`
	Authority types.Address `json:"authority"`
	Amount    uint64        `json:"amount"`
}

// accountDataSize is the encoded size of a token account.
const accountDataSize = 1 + types.AddressSize + types.AddressSize + 8

var errShortData = errors.New("short token data")

// encodeMint lays out a mint as:
//
//	[1 byte:  kind]
//	[20 bytes: mint authority]
//	[8 bytes: supply, little endian]
//	[1 byte:  decimals]
//	[1 byte:  nameLen][nameLen bytes: name]
//	[1 byte:  symbolLen][symbolLen bytes: symbol]
func encodeMint(m *Mint) []byte {
	buf := make([]byte, 0, 1+types.AddressSize+8+1+2+len(m.Name)+len(m.Symbol))
	buf = append(buf, kindMint)
	buf = append(buf, m.Authority[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, m.Supply)
	buf = append(buf, m.Decimals)
	buf = append(buf, uint8(len(m.Name)))
	buf = append(buf, m.Name...)
	buf = append(buf, uint8(len(m.Symbol)))
	buf = append(buf, m.Symbol...)
	return buf
}

func decodeMint(addr, program types.Address, data []byte) (*Mint, error) {
	const fixed = 1 + types.AddressSize + 8 + 1
	if len(data) < fixed+2 || data[0] != kindMint {
		return nil, fmt.Errorf("%w: %s", ErrNotMint, addr)
	}
	m := &Mint{Address: addr, Program: program}
	off := 1
	copy(m.Authority[:], data[off:off+types.AddressSize])
	off += types.AddressSize
	m.Supply = binary.LittleEndian.Uint64(data[off:])
	off += 8
	m.Decimals = data[off]
	off++

	name, off, err := readShortString(data, off)
	if err != nil {
		return nil, fmt.Errorf("mint %s name: %w", addr, err)
	}
	symbol, _, err := readShortString(data, off)
	if err != nil {
		return nil, fmt.Errorf("mint %s symbol: %w", addr, err)
	}
	m.Name, m.Symbol = name, symbol
	return m, nil
}

func readShortString(data []byte, off int) (string, int, error) {
	if off >= len(data) {
		return "", off, errShortData
	}
	n := int(data[off])
	off++
	if off+n > len(data) {
		return "", off, errShortData
	}
	return string(data[off : off+n]), off + n, nil
}

func encodeAccount(a *Account) []byte {
	buf := make([]byte, 0, accountDataSize)
	buf = append(buf, kindAccount)
	buf = append(buf, a.Mint[:]...)
	buf = append(buf, a.Authority[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, a.Amount)
	return buf
}

func decodeAccount(addr, program types.Address, data []byte) (*Account, error) {
	if len(data) != accountDataSize || data[0] != kindAccount {
		return nil, fmt.Errorf("%w: %s", ErrNotTokenAccount, addr)
	}
	a := &Account{Address: addr, Program: program}
	off := 1
	copy(a.Mint[:], data[off:off+types.AddressSize])
	off += types.AddressSize
	copy(a.Authority[:], data[off:off+types.AddressSize])
	off += types.AddressSize
	a.Amount = binary.LittleEndian.Uint64(data[off:])
	return a, nil
}

// AssociatedAddress returns the canonical token account address for
// (owner, mint) under a token program.
func AssociatedAddress(owner, mint, program types.Address) (types.Address, error) {
	addr, _, err := crypto.FindProgramAddress([][]byte{owner[:], program[:], mint[:]}, AssociatedProgramID)
	if err != nil {
		return types.Address{}, fmt.Errorf("associated address: %w", err)
	}
	return addr, nil
}

// MintAddress derives a mint address from its authority and a label, so
// mints can be created without generating a throwaway key pair.
func MintAddress(authority types.Address, label string, program types.Address) (types.Address, error) {
	if len(label) > crypto.MaxSeedLength {
		return types.Address{}, fmt.Errorf("mint label longer than %d bytes", crypto.MaxSeedLength)
	}
	addr, _, err := crypto.FindProgramAddress([][]byte{[]byte("mint"), authority[:], []byte(label)}, program)
	if err != nil {
		return types.Address{}, fmt.Errorf("mint address: %w", err)
	}
	return addr, nil
}
