package escrow

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Record layout offsets. The record is a fixed-size little-endian blob:
//
//	[0:8]   discriminator
//	[8:28]  owner
//	[28:36] seed
//	[36:56] mint offered
//	[56:76] mint requested
//	[76:84] amount requested
//	[84]    bump
const (
	discriminatorSize = 8

	offOwner           = discriminatorSize
	offSeed            = offOwner + types.AddressSize
	offMintOffered     = offSeed + 8
	offMintRequested   = offMintOffered + types.AddressSize
	offAmountRequested = offMintRequested + types.AddressSize
	offBump            = offAmountRequested + 8

	// RecordSize is the encoded size of a Record.
	RecordSize = offBump + 1
)

// recordDiscriminator tags escrow record data so no other account layout
// can be mistaken for one.
var recordDiscriminator = func() []byte {
	h := crypto.Hash([]byte("account:EscrowRecord"))
	return h[:discriminatorSize]
}()

// Record is the persisted state of one open escrow.
type Record struct {
	Address         types.Address `json:"address"`
	Owner           types.Address `json:"owner"`
	Seed            uint64        `json:"seed"`
	MintOffered     types.Address `json:"mint_offered"`
	MintRequested   types.Address `json:"mint_requested"`
	AmountRequested uint64        `json:"amount_requested"`
	Bump            uint8         `json:"bump"`
}

// Encode serializes the record (without its address).
func (r *Record) Encode() []byte {
	buf := make([]byte, RecordSize)
	copy(buf, recordDiscriminator)
	copy(buf[offOwner:], r.Owner[:])
	binary.LittleEndian.PutUint64(buf[offSeed:], r.Seed)
	copy(buf[offMintOffered:], r.MintOffered[:])
	copy(buf[offMintRequested:], r.MintRequested[:])
	binary.LittleEndian.PutUint64(buf[offAmountRequested:], r.AmountRequested)
	buf[offBump] = r.Bump
	return buf
}

// DecodeRecord parses record data stored at addr.
func DecodeRecord(addr types.Address, data []byte) (*Record, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("record is %d bytes, want %d", len(data), RecordSize)
	}
	if !bytes.Equal(data[:discriminatorSize], recordDiscriminator) {
		return nil, fmt.Errorf("bad record discriminator %x", data[:discriminatorSize])
	}
	r := &Record{Address: addr}
	copy(r.Owner[:], data[offOwner:offSeed])
	r.Seed = binary.LittleEndian.Uint64(data[offSeed:])
	copy(r.MintOffered[:], data[offMintOffered:offMintRequested])
	copy(r.MintRequested[:], data[offMintRequested:offAmountRequested])
	r.AmountRequested = binary.LittleEndian.Uint64(data[offAmountRequested:])
	r.Bump = data[offBump]
	return r, nil
}

// signerSeeds returns the seeds, bump included, that sign for the record.
func (r *Record) signerSeeds() [][]byte {
	return append(recordSeeds(r.Owner, r.Seed), []byte{r.Bump})
}
