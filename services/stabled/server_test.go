package stabled

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"stablecore/core/pricing"
	"stablecore/gateway/middleware"
	"stablecore/native/bank"
	nativecommon "stablecore/native/common"
	"stablecore/native/stable"
	"stablecore/storage"
)

var (
	testAsset   = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	testCustody = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	alice       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

type fixture struct {
	server *httptest.Server
	engine *stable.Engine
	feed   *pricing.ManualFeed
	token  *bank.Token
	stable *bank.Token
	db     *storage.MemDB
}

// newFixture stands up the full service against in-process ledgers with one
// asset priced at 3000 on an 8-decimal manual feed and a funded alice.
func newFixture(t *testing.T, auth middleware.AuthConfig) *fixture {
	t.Helper()

	feed := pricing.NewManualFeed(8)
	feed.Set(units("300000000000"))
	adapter := pricing.NewAdapter(feed, time.Hour)

	registry, err := stable.NewRegistry([]stable.AssetID{testAsset}, []stable.PriceSource{adapter})
	require.NoError(t, err)

	collateralToken := bank.NewToken("WETH")
	collateralToken.Mint(alice, units("1000000000000000000000"))
	collateralToken.Mint(bob, units("1000000000000000000000"))
	stableToken := bank.NewToken("SUSD")

	vault := bank.NewVault(testCustody, map[common.Address]*bank.Token{testAsset: collateralToken})
	minter := bank.NewStableMinter(testCustody, stableToken)

	pauses := nativecommon.NewSwitchboard()
	engine := stable.NewEngine(registry, vault, minter)
	engine.SetPauses(pauses)

	db := storage.NewMemDB()
	srv := NewServer(Config{
		Engine:    engine,
		DB:        db,
		Auth:      auth,
		RateLimit: middleware.RateLimit{RequestsPerMinute: 100_000, Burst: 100_000},
		Feeds:     map[common.Address]*pricing.ManualFeed{testAsset: feed},
		Symbols:   map[common.Address]string{testAsset: "WETH"},
		Tokens:    map[common.Address]*bank.Token{testAsset: collateralToken},
		Pauses:    pauses,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &fixture{server: ts, engine: engine, feed: feed, token: collateralToken, stable: stableToken, db: db}
}

func units(decimal string) *big.Int {
	value, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		panic("bad test constant " + decimal)
	}
	return value
}

func (f *fixture) post(t *testing.T, caller common.Address, path string, body interface{}) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if caller != (common.Address{}) {
		req.Header.Set("X-Account", caller.Hex())
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.server.Client().Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})
	resp := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDepositMintAndReadPosition(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "20000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, alice, "/stable/mint", map[string]string{"amount": "100000000000000000000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.get(t, "/positions/"+alice.Hex())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var position struct {
		Account      string `json:"account"`
		Debt         string `json:"debt"`
		TotalValue   string `json:"totalCollateralValue"`
		HealthFactor string `json:"healthFactor"`
		Collateral   []struct {
			Symbol  string `json:"symbol"`
			Balance string `json:"balance"`
		} `json:"collateral"`
	}
	decodeBody(t, resp, &position)
	require.Equal(t, "100000000000000000000", position.Debt)
	require.Equal(t, "60000000000000000000000", position.TotalValue)
	require.Equal(t, "300000000000000000000", position.HealthFactor)
	require.Len(t, position.Collateral, 1)
	require.Equal(t, "WETH", position.Collateral[0].Symbol)
	require.Equal(t, "20000000000000000000", position.Collateral[0].Balance)

	require.Zero(t, f.stable.BalanceOf(alice).Cmp(units("100000000000000000000")))
}

func TestMintBeyondLimitReportsHealthFactor(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, alice, "/stable/mint", map[string]string{"amount": "1600000000000000000000"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body struct {
		Error        string `json:"error"`
		HealthFactor string `json:"healthFactor"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "937500000000000000", body.HealthFactor)
}

func TestErrorStatusMapping(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	// Unregistered asset.
	resp := f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  bob.Hex(),
		"amount": "1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Burning with no debt outstanding.
	resp = f.post(t, alice, "/stable/burn", map[string]string{"amount": "1"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Liquidating a healthy position.
	resp = f.post(t, alice, "/collateral/deposit-and-mint", map[string]string{
		"asset":            testAsset.Hex(),
		"collateralAmount": "1000000000000000000",
		"mintAmount":       "100000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.post(t, bob, "/liquidate", map[string]string{
		"asset":       testAsset.Hex(),
		"violator":    alice.Hex(),
		"debtToCover": "100000000000000000000",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Malformed JSON body.
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/stable/mint", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	req.Header.Set("X-Account", alice.Hex())
	raw, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusBadRequest, raw.StatusCode)

	// Unknown JSON field.
	resp = f.post(t, alice, "/stable/mint", map[string]string{"amount": "1", "memo": "hi"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallerRequired(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})
	resp := f.post(t, common.Address{}, "/stable/mint", map[string]string{"amount": "1"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticatedCallerFromToken(t *testing.T) {
	const secret = "service-secret"
	f := newFixture(t, middleware.AuthConfig{Enabled: true, HMACSecret: secret})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": alice.Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "1000000000000000000",
	})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/collateral/deposit", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, f.engine.CollateralOf(alice, testAsset).Cmp(units("1000000000000000000")))

	// With auth enabled the X-Account fallback must not work.
	req, err = http.NewRequest(http.MethodPost, f.server.URL+"/collateral/deposit", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Account", alice.Hex())
	resp, err = f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOraclePriceUpdateDrivesLiquidation(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/collateral/deposit-and-mint", map[string]string{
		"asset":            testAsset.Hex(),
		"collateralAmount": "10000000000000000000",
		"mintAmount":       "100000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Bob needs stable units to repay alice's debt.
	resp = f.post(t, bob, "/collateral/deposit-and-mint", map[string]string{
		"asset":            testAsset.Hex(),
		"collateralAmount": "100000000000000000000",
		"mintAmount":       "100000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, alice, fmt.Sprintf("/oracle/%s/price", testAsset.Hex()), map[string]string{
		"price": "1500000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, bob, "/liquidate", map[string]string{
		"asset":       testAsset.Hex(),
		"violator":    alice.Hex(),
		"debtToCover": "100000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Zero(t, f.engine.DebtOf(alice).Sign())
}

func TestPauseEndpointBlocksMutations(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/admin/pause", map[string]interface{}{
		"module": "stable",
		"paused": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "1",
	})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = f.post(t, alice, "/admin/pause", map[string]interface{}{
		"module": "stable",
		"paused": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStaleOracleReturnsServiceUnavailable(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.feed.SetAt(units("300000000000"), time.Now().Add(-2*time.Hour))
	resp = f.post(t, alice, "/stable/mint", map[string]string{"amount": "1"})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestFaucetMintsCollateral(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/admin/faucet", map[string]string{
		"asset":   testAsset.Hex(),
		"account": bob.Hex(),
		"amount":  "5",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, alice, "/admin/faucet", map[string]string{
		"asset":   bob.Hex(),
		"account": bob.Hex(),
		"amount":  "5",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegistryEndpoint(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.get(t, "/registry")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var registry struct {
		Assets []struct {
			Symbol string `json:"symbol"`
			Asset  string `json:"asset"`
		} `json:"assets"`
		LiquidationThreshold int    `json:"liquidationThreshold"`
		LiquidationBonus     int    `json:"liquidationBonus"`
		MinHealthFactor      string `json:"minHealthFactor"`
	}
	decodeBody(t, resp, &registry)
	require.Equal(t, 50, registry.LiquidationThreshold)
	require.Equal(t, 10, registry.LiquidationBonus)
	require.Equal(t, "1000000000000000000", registry.MinHealthFactor)
	require.Len(t, registry.Assets, 1)
	require.Equal(t, "WETH", registry.Assets[0].Symbol)
}

func TestMutationsPersistLedgers(t *testing.T) {
	f := newFixture(t, middleware.AuthConfig{})

	resp := f.post(t, alice, "/collateral/deposit", map[string]string{
		"asset":  testAsset.Hex(),
		"amount": "3000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	book, err := stable.LoadBook(f.db)
	require.NoError(t, err)
	require.Zero(t, book.CollateralOf(alice, testAsset).Cmp(units("3000000000000000000")))
}
