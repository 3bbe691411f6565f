package escrow

import (
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Offer is an open escrow together with its vault.
type Offer struct {
	Record
	Vault         types.Address `json:"vault"`
	TokenProgram  types.Address `json:"token_program"`
	AmountOffered uint64        `json:"amount_offered"`
}

// Get returns the open escrow at addr.
func (p *Program) Get(addr types.Address) (*Offer, error) {
	var offer *Offer
	err := p.ledger.View(func(txn *ledger.Txn) error {
		var err error
		offer, err = loadOffer(txn, addr)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return offer, nil
}

// ListByOwner returns the open escrows made by owner, in address order.
func (p *Program) ListByOwner(owner types.Address) ([]*Offer, error) {
	var offers []*Offer
	err := p.ledger.View(func(txn *ledger.Txn) error {
		prefix := ownerIndexPrefix(owner)
		return txn.ForEachIndex(prefix, func(key []byte) error {
			var addr types.Address
			copy(addr[:], key[len(prefix):])
			offer, err := loadOffer(txn, addr)
			if err != nil {
				return err
			}
			offers = append(offers, offer)
			return nil
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return offers, nil
}

// CountOpen returns the number of open escrows.
func (p *Program) CountOpen() (int, error) {
	n := 0
	err := p.ledger.View(func(txn *ledger.Txn) error {
		return txn.ForEachIndex([]byte("e/"), func([]byte) error {
			n++
			return nil
		})
	})
	return n, err
}

func loadOffer(txn *ledger.Txn, addr types.Address) (*Offer, error) {
	rec, err := loadRecord(txn, addr)
	if err != nil {
		return nil, err
	}
	vault, mint, err := loadVault(txn, rec, types.Address{})
	if err != nil {
		return nil, err
	}
	return &Offer{
		Record:        *rec,
		Vault:         vault.Address,
		TokenProgram:  mint.Program,
		AmountOffered: vault.Amount,
	}, nil
}
