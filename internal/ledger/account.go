package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Key prefixes for ledger state.
var (
	prefixAccount = []byte("a/") // a/<address> -> owner(20) | deposit(8) | data
	prefixNative  = []byte("n/") // n/<address> -> balance(8)
	prefixIndex   = []byte("i/") // i/<program-defined key> -> empty
)

const accountHeaderSize = types.AddressSize + 8

// Ledger errors.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrWrongOwner          = errors.New("account owned by another program")
	ErrInsufficientBalance = errors.New("insufficient native balance")
	ErrBalanceOverflow     = errors.New("native balance overflow")
	ErrDepositOverflow     = errors.New("storage deposit overflow")
	ErrCorruptAccount      = errors.New("corrupt account record")
	ErrReadOnly            = errors.New("write in read-only transaction")
)

// Account is a program-owned ledger entry. Owner is the program allowed to
// modify Data; Deposit is the native amount locked while the account exists.
type Account struct {
	Address types.Address `json:"address"`
	Owner   types.Address `json:"owner"`
	Deposit uint64        `json:"deposit"`
	Data    []byte        `json:"data"`
}

// DepositPricing prices storage: deposit = Base + PerByte*len(data).
type DepositPricing struct {
	Base    uint64 `json:"base"`
	PerByte uint64 `json:"per_byte"`
}

// DepositFor returns the deposit required to store size bytes of data.
func (p DepositPricing) DepositFor(size int) (uint64, error) {
	if size < 0 {
		return 0, fmt.Errorf("negative size %d", size)
	}
	n := uint64(size)
	if p.PerByte != 0 && n > math.MaxUint64/p.PerByte {
		return 0, ErrDepositOverflow
	}
	variable := p.PerByte * n
	if variable > math.MaxUint64-p.Base {
		return 0, ErrDepositOverflow
	}
	return p.Base + variable, nil
}

func accountKey(addr types.Address) []byte {
	key := make([]byte, len(prefixAccount)+types.AddressSize)
	copy(key, prefixAccount)
	copy(key[len(prefixAccount):], addr[:])
	return key
}

func nativeKey(addr types.Address) []byte {
	key := make([]byte, len(prefixNative)+types.AddressSize)
	copy(key, prefixNative)
	copy(key[len(prefixNative):], addr[:])
	return key
}

func indexKey(key []byte) []byte {
	out := make([]byte, len(prefixIndex)+len(key))
	copy(out, prefixIndex)
	copy(out[len(prefixIndex):], key)
	return out
}

func encodeAccount(a *Account) []byte {
	buf := make([]byte, accountHeaderSize+len(a.Data))
	copy(buf, a.Owner[:])
	binary.LittleEndian.PutUint64(buf[types.AddressSize:], a.Deposit)
	copy(buf[accountHeaderSize:], a.Data)
	return buf
}

func decodeAccount(addr types.Address, buf []byte) (*Account, error) {
	if len(buf) < accountHeaderSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrCorruptAccount, addr, len(buf))
	}
	a := &Account{Address: addr}
	copy(a.Owner[:], buf[:types.AddressSize])
	a.Deposit = binary.LittleEndian.Uint64(buf[types.AddressSize:])
	a.Data = make([]byte, len(buf)-accountHeaderSize)
	copy(a.Data, buf[accountHeaderSize:])
	return a, nil
}

func encodeBalance(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func decodeBalance(buf []byte) (uint64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("corrupt native balance: %d bytes", len(buf))
	}
	return binary.BigEndian.Uint64(buf), nil
}
