package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Account is a derived signing key.
type Account struct {
	Account uint32
	Index   uint32
	Address types.Address
	Key     *crypto.PrivateKey
}

// Path returns the account's derivation path.
func (a *Account) Path() string {
	return DerivationPath(a.Account, a.Index)
}

// DerivationPath formats m/44'/8888'/account'/0/index.
func DerivationPath(account, index uint32) string {
	return fmt.Sprintf("m/44'/8888'/%d'/%d/%d", account, ChainExternal, index)
}

// DeriveAccount derives the signing account at (account, index) of seed.
func DeriveAccount(seed []byte, account, index uint32) (*Account, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	hd, err := master.DeriveSigning(account, index)
	if err != nil {
		return nil, err
	}
	key, err := hd.Signer()
	if err != nil {
		return nil, err
	}
	return &Account{Account: account, Index: index, Address: key.Address(), Key: key}, nil
}
