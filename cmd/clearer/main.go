// Command clearer runs a single clearing node: it opens a commit-reveal
// order book for the current epoch, waits out the collect and reveal
// windows, runs the SCP solver against the oracle's reference prices, and
// -- if the published solution survives the validity predicate -- applies
// its fills to the ledger, persists it, and broadcasts it to the API's
// WebSocket subscribers before rolling over into the next epoch.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/convexfx/engine/params"
	"github.com/convexfx/engine/pkg/accounting"
	"github.com/convexfx/engine/pkg/api"
	"github.com/convexfx/engine/pkg/clearing"
	"github.com/convexfx/engine/pkg/gossip"
	"github.com/convexfx/engine/pkg/oracle"
	"github.com/convexfx/engine/pkg/orderbook"
	"github.com/convexfx/engine/pkg/risk"
	"github.com/convexfx/engine/pkg/solver"
	"github.com/convexfx/engine/pkg/storage"
	"github.com/convexfx/engine/pkg/types"
	"github.com/convexfx/engine/pkg/util"
	"github.com/convexfx/engine/pkg/validity"
)

func main() {
	cfg := params.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = cfg.Node.DataDir + "/clearer.log"
	}
	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	riskParams := resolveRiskPreset(cfg.Clearing.RiskPreset)

	if err := os.MkdirAll(cfg.Node.DataDir, 0o755); err != nil {
		sugar.Fatalw("data_dir_failed", "err", err)
	}
	store, err := storage.NewEpochStore(cfg.Node.DataDir + "/epochstore")
	if err != nil {
		sugar.Fatalw("epoch_store_failed", "err", err)
	}
	defer store.Close()

	ledger := accounting.NewMemoryLedger()

	mockOracle := oracle.NewMockOracle()

	net, err := gossip.New(context.Background(), gossip.Config{
		ListenAddr: cfg.Gossip.ListenAddr,
		Bootstrap:  cfg.Gossip.Bootstrap,
		Logger:     sugar,
	})
	if err != nil {
		sugar.Fatalw("gossip_init_failed", "err", err)
	}
	defer net.Close()

	scp := clearing.NewScpClearing(solver.NewAdmmQpSolver(), clearing.ScpParams{
		MaxIterations:      cfg.Clearing.MaxIterations,
		ToleranceY:         cfg.Clearing.ToleranceY,
		ToleranceAlpha:     cfg.Clearing.ToleranceAlpha,
		LineSearchMaxSteps: clearing.DefaultScpParams().LineSearchMaxSteps,
	})
	predicate := validity.NewPredicate(validity.DefaultTolerances())

	book := orderbook.NewOrderBook(0)
	apiServer := api.NewServer(book, store, riskParams, sugar)
	go func() {
		if err := apiServer.Start(cfg.Node.ApiAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	net.SetHandlers(gossip.Handlers{
		OnCommit: func(ctx context.Context, msg gossip.CommitMsg) {
			if err := book.Commit(msg.Epoch, msg.Commitment); err != nil {
				sugar.Warnw("gossip_commit_rejected", "epoch", msg.Epoch, "err", err)
			}
		},
		OnReveal: func(ctx context.Context, msg gossip.RevealMsg) {
			if err := book.Reveal(msg.Order, msg.Salt); err != nil {
				sugar.Warnw("gossip_reveal_rejected", "epoch", msg.Epoch, "err", err)
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inventory := riskParams.QTarget
	clock := util.RealClock{}

	var epoch types.EpochId
	for {
		select {
		case <-ctx.Done():
			sugar.Infow("shutdown")
			return
		default:
		}

		lifecycle := clearing.NewEpochLifecycle()
		book = orderbook.NewOrderBook(epoch)
		apiServer.SetBook(book)

		sugar.Infow("epoch_collecting", "epoch", epoch)
		waitOrDone(ctx, clock, cfg.Clearing.CollectDuration)
		lifecycle.Advance()

		sugar.Infow("epoch_revealing", "epoch", epoch)
		waitOrDone(ctx, clock, cfg.Clearing.RevealDuration)
		lifecycle.Advance()

		frozenOrders := book.Freeze()
		for _, o := range frozenOrders {
			ledger.RegisterOrder(o)
		}

		refPrices, err := mockOracle.ReferencePrices(ctx, epoch)
		if err != nil {
			sugar.Errorw("oracle_failed", "epoch", epoch, "err", err)
			epoch++
			continue
		}

		inst := clearing.NewEpochInstance(epoch, inventory, frozenOrders, refPrices, riskParams)
		lifecycle.Advance()

		sol, err := scp.ClearEpoch(ctx, inst)
		if err != nil {
			sugar.Errorw("clearing_failed", "epoch", epoch, "err", err)
			epoch++
			continue
		}

		if err := predicate.Validate(validity.Context{OraclePrices: refPrices, InitialInventory: inventory}, sol); err != nil {
			sugar.Errorw("validity_rejected", "epoch", epoch, "err", err)
			epoch++
			continue
		}
		lifecycle.Advance()

		if err := ledger.ApplyFills(ctx, epoch, sol.Fills); err != nil {
			sugar.Errorw("accounting_failed", "epoch", epoch, "err", err)
		}
		if err := store.SaveSolution(sol); err != nil {
			sugar.Errorw("solution_persist_failed", "epoch", epoch, "err", err)
		}
		apiServer.BroadcastSolution(sol)
		lifecycle.Advance()

		sugar.Infow("epoch_settled", "epoch", epoch, "iterations", sol.Diagnostics.Iterations, "converged", sol.Diagnostics.ConvergenceAchieved)

		inventory = sol.QPost
		epoch++
	}
}

func waitOrDone(ctx context.Context, clock util.Clock, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-clock.After(d):
	}
}

func resolveRiskPreset(name string) risk.RiskParams {
	switch name {
	case "ultra-low-slippage":
		return risk.UltraLowSlippage()
	case "low-slippage":
		return risk.LowSlippage()
	case "fill-friendly":
		return risk.FillFriendly()
	default:
		return risk.DefaultDemo()
	}
}
