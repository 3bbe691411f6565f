// Package node wires storage, the ledger, the token and escrow programs,
// and the RPC and metrics endpoints into one embeddable unit.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	klog "github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/metrics"
	"github.com/Klingon-tech/klingswap/internal/processor"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/rs/zerolog"
)

// Storage namespaces inside the node database.
var (
	ledgerNamespace = []byte("ledger/")
	metaNamespace   = []byte("meta/")
)

// Node is a fully-initialized klingswap node.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Core
	db     storage.DB
	ledger *ledger.Ledger
	tokens *token.Program
	escrow *escrow.Program
	proc   *processor.Processor

	// Endpoints
	rpcServer     *rpc.Server
	metrics       *metrics.Metrics
	metricsServer *http.Server
	metricsLn     net.Listener

	stopOnce sync.Once
}

// New creates and initializes a node. It opens storage and builds every
// component but does not listen; call Start for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Set address HRP ──────────────────────────────────────────
	types.SetAddressHRP(cfg.HRP())

	// ── 2. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		if err := os.MkdirAll(cfg.LogsDir(), 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(cfg.LogsDir(), "klingswap.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("backend", cfg.DB.Backend).
		Str("version", config.Version).
		Msg("Starting klingswap node")

	// ── 3. Open storage ─────────────────────────────────────────────
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := checkNetwork(storage.NewPrefixDB(db, metaNamespace), cfg.Network); err != nil {
		db.Close()
		return nil, err
	}

	// ── 4. Ledger and programs ──────────────────────────────────────
	l := ledger.New(storage.NewPrefixDB(db, ledgerNamespace), ledger.DepositPricing{
		Base:    cfg.Ledger.DepositBase,
		PerByte: cfg.Ledger.DepositPerByte,
	})
	l.SetLogger(klog.Ledger)

	tokens := token.NewProgram()
	tokens.SetLogger(klog.Token)

	esc := escrow.NewProgram(l, tokens)
	esc.SetLogger(klog.Escrow)
	esc.SetEmitter(eventLogger(klog.Escrow))

	proc := processor.New(l, tokens, esc)
	proc.SetLogger(klog.Processor)

	open, err := esc.CountOpen()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("count open escrows: %w", err)
	}
	logger.Info().
		Int("open_escrows", open).
		Uint64("deposit_base", cfg.Ledger.DepositBase).
		Uint64("deposit_per_byte", cfg.Ledger.DepositPerByte).
		Msg("Ledger ready")

	n := &Node{
		cfg:    cfg,
		logger: logger,
		db:     db,
		ledger: l,
		tokens: tokens,
		escrow: esc,
		proc:   proc,
	}

	// ── 5. Metrics ──────────────────────────────────────────────────
	if cfg.Metrics.Enabled {
		n.metrics = metrics.New()
		n.metrics.SetOpenEscrows(open)
		esc.SetObserver(n.metrics)
	}

	// ── 6. RPC ──────────────────────────────────────────────────────
	if cfg.RPC.Enabled {
		addr := net.JoinHostPort(cfg.RPC.Addr, strconv.Itoa(cfg.RPC.Port))
		n.rpcServer = rpc.New(addr, l, proc, esc, cfg.RPC)
		n.rpcServer.SetNetwork(cfg.Network)
		n.rpcServer.SetFaucet(cfg.Faucet)
		if n.metrics != nil {
			n.rpcServer.SetMetrics(n.metrics)
		}
		if cfg.Faucet.Enabled {
			logger.Warn().Uint64("amount", cfg.Faucet.Amount).Msg("Faucet enabled")
		}
	} else {
		logger.Warn().Msg("RPC disabled by config")
	}

	return n, nil
}

// Start binds the RPC and metrics listeners.
func (n *Node) Start() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return fmt.Errorf("start rpc: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server listening")
	}

	if n.metrics != nil {
		ln, err := net.Listen("tcp", n.cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", n.metrics.Handler())
		n.metricsLn = ln
		n.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := n.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				n.logger.Error().Err(err).Msg("Metrics server error")
			}
		}()
		n.logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")
	}

	n.logger.Info().Msg("Node started successfully")
	return nil
}

// Stop shuts down the endpoints and closes storage. It is safe to call
// more than once.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if n.rpcServer != nil {
			if err := n.rpcServer.Stop(ctx); err != nil {
				n.logger.Warn().Err(err).Msg("RPC shutdown")
			}
		}
		if n.metricsServer != nil {
			if err := n.metricsServer.Shutdown(ctx); err != nil {
				n.logger.Warn().Err(err).Msg("Metrics shutdown")
			}
		}
		if err := n.db.Close(); err != nil {
			n.logger.Warn().Err(err).Msg("Database close")
		}
		n.logger.Info().Msg("Goodbye!")
	})
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// MetricsAddr returns the address the metrics server is listening on.
func (n *Node) MetricsAddr() string {
	if n.metricsLn == nil {
		return ""
	}
	return n.metricsLn.Addr().String()
}

// Escrow returns the escrow program.
func (n *Node) Escrow() *escrow.Program { return n.escrow }

// Processor returns the transaction processor.
func (n *Node) Processor() *processor.Processor { return n.proc }
