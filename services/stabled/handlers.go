package stabled

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"stablecore/gateway/middleware"
	"stablecore/native/stable"
)

const requestBodyLimit = 1 << 20 // 1 MiB

// accountHeader names the fallback caller identity accepted when
// authentication is disabled (self-contained runs).
const accountHeader = "X-Account"

type collateralRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type depositAndMintRequest struct {
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateralAmount"`
	MintAmount       string `json:"mintAmount"`
}

type redeemForStableRequest struct {
	Asset            string `json:"asset"`
	CollateralAmount string `json:"collateralAmount"`
	BurnAmount       string `json:"burnAmount"`
}

type liquidateRequest struct {
	Asset       string `json:"asset"`
	Violator    string `json:"violator"`
	DebtToCover string `json:"debtToCover"`
}

type priceRequest struct {
	Price string `json:"price"`
}

type pauseRequest struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

func (s *Server) depositCollateral(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := collateralRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	asset, amount, err := parseAssetAmount(req.Asset, req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.DepositCollateral(caller, asset, amount); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) redeemCollateral(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := collateralRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	asset, amount, err := parseAssetAmount(req.Asset, req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.RedeemCollateral(caller, asset, amount); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) depositAndMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := depositAndMintRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	asset, collateralAmount, err := parseAssetAmount(req.Asset, req.CollateralAmount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mintAmount, err := parseAmount(req.MintAmount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.DepositCollateralAndMint(caller, asset, collateralAmount, mintAmount); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) redeemForStable(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := redeemForStableRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	asset, collateralAmount, err := parseAssetAmount(req.Asset, req.CollateralAmount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	burnAmount, err := parseAmount(req.BurnAmount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.RedeemCollateralForStable(caller, asset, collateralAmount, burnAmount); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) mintStable(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := amountRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.Mint(caller, amount); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) burnStable(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := amountRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.Burn(caller, amount); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) liquidate(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	req := liquidateRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	asset, debtToCover, err := parseAssetAmount(req.Asset, req.DebtToCover)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	violator, err := parseAddress(req.Violator)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.Liquidate(caller, violator, asset, debtToCover); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persist()
	writeOK(w)
}

func (s *Server) setPrice(w http.ResponseWriter, r *http.Request) {
	asset, err := parseAddress(chi.URLParam(r, "asset"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	feed, ok := s.feeds[asset]
	if !ok {
		writeBadRequest(w, fmt.Errorf("no manual feed for asset %s", asset))
		return
	}
	req := priceRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	feed.Set(price)
	writeOK(w)
}

func (s *Server) setPause(w http.ResponseWriter, r *http.Request) {
	if s.pauses == nil {
		writeBadRequest(w, fmt.Errorf("pause switchboard not configured"))
		return
	}
	req := pauseRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Module) == "" {
		writeBadRequest(w, fmt.Errorf("module required"))
		return
	}
	s.pauses.SetPaused(req.Module, req.Paused)
	writeOK(w)
}

type positionResponse struct {
	Account      string            `json:"account"`
	Collateral   []collateralEntry `json:"collateral"`
	Debt         string            `json:"debt"`
	TotalValue   string            `json:"totalCollateralValue"`
	HealthFactor string            `json:"healthFactor"`
}

type collateralEntry struct {
	Symbol  string `json:"symbol,omitempty"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(chi.URLParam(r, "account"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	totalValue, err := s.engine.TotalCollateralValue(account)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	healthFactor, err := s.engine.AccountHealthFactor(account)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	resp := positionResponse{
		Account:      account.Hex(),
		Debt:         s.engine.DebtOf(account).String(),
		TotalValue:   totalValue.String(),
		HealthFactor: healthFactor.String(),
	}
	for _, asset := range s.engine.Assets() {
		resp.Collateral = append(resp.Collateral, collateralEntry{
			Symbol:  s.symbols[asset],
			Asset:   asset.Hex(),
			Balance: s.engine.CollateralOf(account, asset).String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type registryResponse struct {
	Assets               []collateralEntry `json:"assets"`
	LiquidationThreshold int               `json:"liquidationThreshold"`
	LiquidationBonus     int               `json:"liquidationBonus"`
	Precision            string            `json:"precision"`
	MinHealthFactor      string            `json:"minHealthFactor"`
}

func (s *Server) getRegistry(w http.ResponseWriter, _ *http.Request) {
	resp := registryResponse{
		LiquidationThreshold: stable.LiquidationThreshold,
		LiquidationBonus:     stable.LiquidationBonus,
		Precision:            stable.Precision.String(),
		MinHealthFactor:      stable.MinHealthFactor.String(),
	}
	for _, asset := range s.engine.Assets() {
		resp.Assets = append(resp.Assets, collateralEntry{
			Symbol:  s.symbols[asset],
			Asset:   asset.Hex(),
			Balance: s.engine.AssetTotal(asset).String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// caller resolves the acting account: the authenticated subject, or the
// X-Account header when authentication is disabled.
func (s *Server) caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	if account, ok := middleware.Account(r.Context()); ok {
		return account, true
	}
	header := strings.TrimSpace(r.Header.Get(accountHeader))
	if header != "" && common.IsHexAddress(header) {
		return common.HexToAddress(header), true
	}
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "caller account required"})
	return common.Address{}, false
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, requestBodyLimit))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		writeBadRequest(w, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func parseAssetAmount(asset, amount string) (common.Address, *big.Int, error) {
	addr, err := parseAddress(asset)
	if err != nil {
		return common.Address{}, nil, err
	}
	value, err := parseAmount(amount)
	if err != nil {
		return common.Address{}, nil, err
	}
	return addr, value, nil
}

func parseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return value, nil
}

type faucetRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// faucet mints collateral tokens straight to an account. Only available when
// the service runs against in-process token ledgers.
func (s *Server) faucet(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		writeBadRequest(w, fmt.Errorf("faucet not available"))
		return
	}
	req := faucetRequest{}
	if !s.decode(w, r, &req) {
		return
	}
	asset, amount, err := parseAssetAmount(req.Asset, req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	token, ok := s.tokens[asset]
	if !ok {
		writeBadRequest(w, fmt.Errorf("no token ledger for asset %s", asset))
		return
	}
	if !token.Mint(account, amount) {
		writeBadRequest(w, fmt.Errorf("mint of %s rejected", req.Amount))
		return
	}
	writeOK(w)
}
