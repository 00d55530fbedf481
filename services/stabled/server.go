package stabled

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"stablecore/core/pricing"
	"stablecore/gateway/middleware"
	"stablecore/native/bank"
	nativecommon "stablecore/native/common"
	"stablecore/native/stable"
	"stablecore/storage"
)

// Config wires the HTTP surface to the engine and its operational helpers.
type Config struct {
	Engine    *stable.Engine
	DB        storage.Database
	Logger    *slog.Logger
	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimit
	// Feeds are the manual price feeds exposed behind the oracle admin
	// endpoint in self-contained mode; nil disables the endpoint.
	Feeds map[common.Address]*pricing.ManualFeed
	// Symbols maps asset identifiers to display symbols for read responses.
	Symbols map[common.Address]string
	// Tokens are the in-process collateral ledgers reachable through the
	// faucet endpoint in self-contained mode; nil disables the endpoint.
	Tokens map[common.Address]*bank.Token
	Pauses *nativecommon.Switchboard
}

// Server is the stabled HTTP front end.
type Server struct {
	engine  *stable.Engine
	db      storage.Database
	logger  *slog.Logger
	feeds   map[common.Address]*pricing.ManualFeed
	symbols map[common.Address]string
	tokens  map[common.Address]*bank.Token
	pauses  *nativecommon.Switchboard
	auth    *middleware.Authenticator
	limits  *middleware.RateLimiter
	obs     *middleware.Observability
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  cfg.Engine,
		db:      cfg.DB,
		logger:  logger,
		feeds:   cfg.Feeds,
		symbols: cfg.Symbols,
		tokens:  cfg.Tokens,
		pauses:  cfg.Pauses,
		auth:    middleware.NewAuthenticator(cfg.Auth, logger),
		limits:  middleware.NewRateLimiter(cfg.RateLimit),
		obs: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "stabled",
			LogRequests: true,
		}, logger),
	}
}

// Router assembles the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.obs.Middleware("stabled"))
	r.Use(s.limits.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.obs.MetricsHandler())
	r.Get("/registry", s.getRegistry)
	r.Get("/positions/{account}", s.getPosition)

	r.Group(func(pr chi.Router) {
		pr.Use(s.auth.Middleware())
		pr.Post("/collateral/deposit", s.depositCollateral)
		pr.Post("/collateral/redeem", s.redeemCollateral)
		pr.Post("/collateral/deposit-and-mint", s.depositAndMint)
		pr.Post("/collateral/redeem-for-stable", s.redeemForStable)
		pr.Post("/stable/mint", s.mintStable)
		pr.Post("/stable/burn", s.burnStable)
		pr.Post("/liquidate", s.liquidate)
		pr.Post("/oracle/{asset}/price", s.setPrice)
		pr.Post("/admin/pause", s.setPause)
		pr.Post("/admin/faucet", s.faucet)
	})
	return r
}

// persist checkpoints the committed ledgers after a successful mutation.
// stabled keeps serving on a failed checkpoint; the next successful one
// rewrites the whole book.
func (s *Server) persist() {
	if s.db == nil {
		return
	}
	if err := stable.SaveBook(s.db, s.engine.Book()); err != nil {
		s.logger.Error("persist ledgers", "err", err)
	}
}
