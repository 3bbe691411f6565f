package escrow

import "github.com/Klingon-tech/klingswap/pkg/types"

// EventType names a committed escrow transition.
type EventType string

// Event types.
const (
	EventMade     EventType = "escrow.made"
	EventTaken    EventType = "escrow.taken"
	EventRefunded EventType = "escrow.refunded"
)

// Event describes a committed transition. AmountOffered is the amount that
// entered (made) or left (taken, refunded) the vault.
type Event struct {
	Type            EventType     `json:"type"`
	Escrow          types.Address `json:"escrow"`
	Owner           types.Address `json:"owner"`
	Taker           types.Address `json:"taker,omitempty"`
	Seed            uint64        `json:"seed"`
	MintOffered     types.Address `json:"mint_offered"`
	MintRequested   types.Address `json:"mint_requested"`
	AmountOffered   uint64        `json:"amount_offered"`
	AmountRequested uint64        `json:"amount_requested"`
}

// Emitter receives events after their transition commits.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev Event) { f(ev) }

// NoopEmitter discards events.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}

func newEvent(typ EventType, r *Record, amountOffered uint64) Event {
	return Event{
		Type:            typ,
		Escrow:          r.Address,
		Owner:           r.Owner,
		Seed:            r.Seed,
		MintOffered:     r.MintOffered,
		MintRequested:   r.MintRequested,
		AmountOffered:   amountOffered,
		AmountRequested: r.AmountRequested,
	}
}
