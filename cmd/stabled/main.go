package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"stablecore/config"
	"stablecore/core/pricing"
	"stablecore/gateway/middleware"
	"stablecore/native/bank"
	nativecommon "stablecore/native/common"
	"stablecore/native/stable"
	"stablecore/observability/logging"
	"stablecore/services/stabled"
	"stablecore/storage"
)

const stableSymbol = "SUSD"

// custodyAddress holds all pulled collateral and stable units awaiting burn.
var custodyAddress = common.BytesToAddress([]byte("stabled/module/custody"))

func main() {
	configPath := flag.String("config", "stabled.toml", "path to the stabled TOML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("stabled", cfg.Environment, cfg.LogFile)

	assets, err := config.LoadAssets(cfg.AssetsFile)
	if err != nil {
		logger.Error("load assets", "err", err)
		os.Exit(1)
	}
	maxAge, err := cfg.QuoteMaxAge()
	if err != nil {
		logger.Error("parse quote age", "err", err)
		os.Exit(1)
	}

	assetIDs := make([]stable.AssetID, 0, len(assets))
	sources := make([]stable.PriceSource, 0, len(assets))
	feeds := make(map[common.Address]*pricing.ManualFeed, len(assets))
	tokens := make(map[common.Address]*bank.Token, len(assets))
	symbols := make(map[common.Address]string, len(assets))
	for _, asset := range assets {
		id, err := asset.AssetID()
		if err != nil {
			logger.Error("parse asset", "symbol", asset.Symbol, "err", err)
			os.Exit(1)
		}
		feed := pricing.NewManualFeed(asset.FeedDecimals)
		if asset.InitialPrice != "" {
			price, ok := new(big.Int).SetString(asset.InitialPrice, 10)
			if !ok {
				logger.Error("parse initial price", "symbol", asset.Symbol, "price", asset.InitialPrice)
				os.Exit(1)
			}
			feed.Set(price)
		}
		assetIDs = append(assetIDs, id)
		sources = append(sources, pricing.NewAdapter(feed, maxAge))
		feeds[id] = feed
		tokens[id] = bank.NewToken(asset.Symbol)
		symbols[id] = asset.Symbol
	}

	registry, err := stable.NewRegistry(assetIDs, sources)
	if err != nil {
		logger.Error("build registry", "err", err)
		os.Exit(1)
	}

	vault := bank.NewVault(custodyAddress, tokens)
	minter := bank.NewStableMinter(custodyAddress, bank.NewToken(stableSymbol))
	engine := stable.NewEngine(registry, vault, minter)

	pauses := nativecommon.NewSwitchboard()
	engine.SetPauses(pauses)
	engine.SetEmitter(stabled.NewLogEmitter(logger))

	var db storage.Database
	if cfg.DataDir != "" {
		ldb, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
		if err != nil {
			logger.Error("open ledger database", "err", err)
			os.Exit(1)
		}
		defer ldb.Close()
		db = ldb
		book, err := stable.LoadBook(db)
		if err != nil {
			logger.Error("restore ledgers", "err", err)
			os.Exit(1)
		}
		engine.SetBook(book)
	}

	authSecret := cfg.AuthSecret()
	server := stabled.NewServer(stabled.Config{
		Engine: engine,
		DB:     db,
		Logger: logger,
		Auth: middleware.AuthConfig{
			Enabled:    authSecret != "",
			HMACSecret: authSecret,
		},
		RateLimit: middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		},
		Feeds:   feeds,
		Symbols: symbols,
		Tokens:  tokens,
		Pauses:  pauses,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("stabled listening", "addr", cfg.ListenAddress, "assets", len(assets))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("stabled stopped")
}
