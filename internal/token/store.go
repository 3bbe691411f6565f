package token

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// prefixAuthority indexes token accounts by authority:
// t/<authority(20)><account(20)> -> empty.
var prefixAuthority = []byte("t/")

func authorityKey(authority, account types.Address) []byte {
	key := make([]byte, len(prefixAuthority)+2*types.AddressSize)
	copy(key, prefixAuthority)
	copy(key[len(prefixAuthority):], authority[:])
	copy(key[len(prefixAuthority)+types.AddressSize:], account[:])
	return key
}

// LoadMint reads the mint at addr.
func LoadMint(txn *ledger.Txn, addr types.Address) (*Mint, error) {
	acct, err := txn.Account(addr)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotMint, addr)
		}
		return nil, err
	}
	if !IsTokenProgram(acct.Owner) {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrNotMint, addr, acct.Owner)
	}
	return decodeMint(addr, acct.Owner, acct.Data)
}

// LoadAccount reads the token account at addr.
func LoadAccount(txn *ledger.Txn, addr types.Address) (*Account, error) {
	acct, err := txn.Account(addr)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotTokenAccount, addr)
		}
		return nil, err
	}
	if !IsTokenProgram(acct.Owner) {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrNotTokenAccount, addr, acct.Owner)
	}
	return decodeAccount(addr, acct.Owner, acct.Data)
}

func saveMint(txn *ledger.Txn, m *Mint) error {
	return txn.WriteAccount(m.Program, m.Address, encodeMint(m))
}

func saveAccount(txn *ledger.Txn, a *Account) error {
	return txn.WriteAccount(a.Program, a.Address, encodeAccount(a))
}

// AccountsByAuthority lists the token accounts controlled by authority.
func AccountsByAuthority(txn *ledger.Txn, authority types.Address) ([]*Account, error) {
	prefix := authorityKey(authority, types.Address{})[:len(prefixAuthority)+types.AddressSize]
	var out []*Account
	err := txn.ForEachIndex(prefix, func(key []byte) error {
		var addr types.Address
		copy(addr[:], key[len(prefix):])
		acct, err := LoadAccount(txn, addr)
		if err != nil {
			return err
		}
		out = append(out, acct)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
