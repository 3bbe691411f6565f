package node

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/rs/zerolog"
)

// ErrNetworkMismatch is returned when the data directory was created for
// another network.
var ErrNetworkMismatch = errors.New("database belongs to another network")

var networkKey = []byte("network")

// openDB opens the configured storage backend.
func openDB(cfg *config.Config) (storage.DB, error) {
	switch cfg.DB.Backend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendBadger, "":
		db, err := storage.NewBadger(cfg.LedgerDir())
		if err != nil {
			return nil, fmt.Errorf("open database at %s: %w", cfg.LedgerDir(), err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown db backend %q", cfg.DB.Backend)
	}
}

// checkNetwork records the network in a fresh database and refuses one
// created for a different network.
func checkNetwork(meta storage.DB, network config.NetworkType) error {
	stored, err := meta.Get(networkKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return meta.Put(networkKey, []byte(network))
	case err != nil:
		return fmt.Errorf("read network marker: %w", err)
	case string(stored) != string(network):
		return fmt.Errorf("%w: %s, not %s", ErrNetworkMismatch, stored, network)
	}
	return nil
}

// eventLogger logs committed escrow events.
func eventLogger(logger zerolog.Logger) escrow.Emitter {
	return escrow.EmitterFunc(func(ev escrow.Event) {
		e := logger.Info().
			Str("event", string(ev.Type)).
			Str("escrow", ev.Escrow.String()).
			Str("owner", ev.Owner.String()).
			Uint64("seed", ev.Seed).
			Uint64("amount_offered", ev.AmountOffered).
			Uint64("amount_requested", ev.AmountRequested)
		if !ev.Taker.IsZero() {
			e = e.Str("taker", ev.Taker.String())
		}
		e.Msg("Escrow event")
	})
}
