package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/api"
	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/ledger"
	"github.com/synthx/elastic-engine/internal/metrics"
	"github.com/synthx/elastic-engine/internal/model"
	"github.com/synthx/elastic-engine/internal/oracle"
	"github.com/synthx/elastic-engine/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func p(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Mul(decimal.New(1, 8))
}

type feedMap map[string]oracle.PriceFeed

func (m feedMap) Lookup(name string) (oracle.PriceFeed, bool) {
	f, ok := m[name]
	return f, ok
}

type testEnv struct {
	t      *testing.T
	engine *ledger.Ledger
	clock  *guard.ManualClock
	btc    *oracle.MockFeed
	router chi.Router
}

// newTestEnv builds a service over a fresh engine with BTC (id 1) and
// ETH (id 2) registered through the HTTP surface, and funds alice and
// bob with 1000 ETH each.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := ledger.DefaultConfig("owner")
	cfg.MinRebaseInterval = 0
	clock := guard.NewManualClock(time.Now().UTC(), 100)
	journal := store.NewMemoryStore()
	engine, err := ledger.New(cfg, clock, journal)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}

	btc := oracle.NewMockFeed("BTC", p(50000))
	feeds := feedMap{
		"BTC": btc,
		"ETH": oracle.NewMockFeed("ETH", p(2000)),
	}
	svc := api.NewService(engine, journal, feeds, nil)

	router := chi.NewRouter()
	router.Route("/api/v1", svc.Routes)

	e := &testEnv{t: t, engine: engine, clock: clock, btc: btc, router: router}
	for _, name := range []string{"BTC", "ETH"} {
		w := e.do("POST", "/api/v1/symbols", map[string]string{"caller": "owner", "name": name})
		if w.Code != http.StatusCreated {
			t.Fatalf("seed symbol %s: %d %s", name, w.Code, w.Body.String())
		}
	}

	engine.Bank().Deposit("alice", d(1000))
	engine.Bank().Deposit("bob", d(1000))
	return e
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) trade(req api.TradeRequest) *httptest.ResponseRecorder {
	e.t.Helper()
	e.clock.AdvanceBlocks(1)
	return e.do("POST", "/api/v1/trade", req)
}

// --- Symbols ---

func TestAddSymbol_Route(t *testing.T) {
	e := newTestEnv(t)

	w := e.do("POST", "/api/v1/symbols", map[string]string{"caller": "owner", "name": "DOGE"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown feed: expected 404, got %d", w.Code)
	}

	w = e.do("POST", "/api/v1/symbols", map[string]string{"caller": "mallory", "name": "BTC"})
	if w.Code != http.StatusForbidden {
		t.Errorf("stranger: expected 403, got %d", w.Code)
	}

	w = e.do("POST", "/api/v1/symbols", map[string]string{"caller": "owner", "name": "BTC"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListAndStats(t *testing.T) {
	e := newTestEnv(t)

	w := e.do("GET", "/api/v1/symbols", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var symbols []model.Symbol
	json.Unmarshal(w.Body.Bytes(), &symbols)
	if len(symbols) != 2 || symbols[0].Name != "BTC" || symbols[1].Name != "ETH" {
		t.Errorf("expected BTC, ETH; got %v", symbols)
	}

	w = e.do("GET", "/api/v1/symbols/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d", w.Code)
	}
	var stats model.SymbolStats
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Symbol != "BTC" || !stats.Active {
		t.Errorf("stats wrong: %+v", stats)
	}

	if w := e.do("GET", "/api/v1/symbols/99", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
	if w := e.do("GET", "/api/v1/symbols/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}

// --- Trading ---

func TestExecuteTrade_Buy(t *testing.T) {
	e := newTestEnv(t)

	w := e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(1)})
	if w.Code != http.StatusOK {
		t.Fatalf("buy: %d %s", w.Code, w.Body.String())
	}

	var resp api.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Tokens.Equal(d(0.000019)) {
		t.Errorf("tokens %s, want 0.000019", resp.Tokens)
	}
	if !resp.Balance.Equal(resp.Tokens) {
		t.Errorf("balance %s should match minted tokens", resp.Balance)
	}
}

func TestExecuteTrade_SellAndShort(t *testing.T) {
	e := newTestEnv(t)
	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(10)})

	// Bob holds nothing: the sell opens a short backed by collateral.
	w := e.trade(api.TradeRequest{Account: "bob", SymbolID: 1, Side: "sell", Amount: d(0.0001), Collateral: d(7.5)})
	if w.Code != http.StatusOK {
		t.Fatalf("short: %d %s", w.Code, w.Body.String())
	}
	var resp api.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.EthOut.Equal(d(4.75)) {
		t.Errorf("short proceeds %s, want 4.75", resp.EthOut)
	}
	if !resp.Balance.Equal(d(-0.0001)) {
		t.Errorf("balance %s, want -0.0001", resp.Balance)
	}

	// Underposted collateral conflicts.
	w = e.trade(api.TradeRequest{Account: "bob", SymbolID: 1, Side: "sell", Amount: d(0.0001), Collateral: d(1)})
	if w.Code != http.StatusConflict {
		t.Errorf("thin collateral: expected 409, got %d", w.Code)
	}
}

func TestExecuteTrade_CoveringBuyCountedAsBuy(t *testing.T) {
	e := newTestEnv(t)
	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(10)})
	w := e.trade(api.TradeRequest{Account: "bob", SymbolID: 1, Side: "sell", Amount: d(0.0001), Collateral: d(7.5)})
	if w.Code != http.StatusOK {
		t.Fatalf("short: %d %s", w.Code, w.Body.String())
	}

	buys := testutil.ToFloat64(metrics.TradesTotal.WithLabelValues(model.KindBuy))
	shorts := testutil.ToFloat64(metrics.TradesTotal.WithLabelValues(model.KindShort))

	// A buy that only partially covers the short leaves the balance
	// negative but is still a buy for reporting.
	w = e.trade(api.TradeRequest{Account: "bob", SymbolID: 1, Side: "buy", Value: d(1)})
	if w.Code != http.StatusOK {
		t.Fatalf("covering buy: %d %s", w.Code, w.Body.String())
	}
	var resp api.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Balance.IsNegative() {
		t.Fatalf("balance %s, expected still short", resp.Balance)
	}

	if got := testutil.ToFloat64(metrics.TradesTotal.WithLabelValues(model.KindBuy)); got != buys+1 {
		t.Errorf("buy count %v, want %v", got, buys+1)
	}
	if got := testutil.ToFloat64(metrics.TradesTotal.WithLabelValues(model.KindShort)); got != shorts {
		t.Errorf("short count %v, want %v", got, shorts)
	}
}

func TestExecuteTrade_Validation(t *testing.T) {
	e := newTestEnv(t)

	if w := e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "hold"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad side: expected 400, got %d", w.Code)
	}
	if w := e.trade(api.TradeRequest{SymbolID: 1, Side: "buy", Value: d(1)}); w.Code != http.StatusBadRequest {
		t.Errorf("missing account: expected 400, got %d", w.Code)
	}
	if w := e.trade(api.TradeRequest{Account: "alice", SymbolID: 99, Side: "buy", Value: d(1)}); w.Code != http.StatusNotFound {
		t.Errorf("unknown symbol: expected 404, got %d", w.Code)
	}
}

func TestExecuteTrade_RateLimited(t *testing.T) {
	e := newTestEnv(t)

	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(1)})
	// Same block, same symbol and account.
	w := e.do("POST", "/api/v1/trade", api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(1)})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("same-block trade: expected 429, got %d", w.Code)
	}
}

func TestTransferAndApprove_Routes(t *testing.T) {
	e := newTestEnv(t)
	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(10)})

	w := e.do("POST", "/api/v1/transfer", map[string]interface{}{
		"from": "alice", "to": "bob", "symbol_id": 1, "amount": "0.00009",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("transfer: %d %s", w.Code, w.Body.String())
	}

	w = e.do("POST", "/api/v1/approve", map[string]interface{}{
		"owner": "alice", "spender": "bob", "symbol_id": 1, "amount": "0.00005",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}

	w = e.do("POST", "/api/v1/transfer", map[string]interface{}{
		"spender": "bob", "from": "alice", "to": "carol", "symbol_id": 1, "amount": "0.00005",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("delegated transfer: %d %s", w.Code, w.Body.String())
	}

	// Allowance is spent.
	w = e.do("POST", "/api/v1/transfer", map[string]interface{}{
		"spender": "bob", "from": "alice", "to": "carol", "symbol_id": 1, "amount": "0.00001",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("spent allowance: expected 409, got %d", w.Code)
	}

	w = e.do("GET", "/api/v1/balances/1/bob", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("balance: %d", w.Code)
	}
	var bal struct {
		Balance decimal.Decimal `json:"balance"`
		IsShort bool            `json:"is_short"`
	}
	json.Unmarshal(w.Body.Bytes(), &bal)
	if !bal.Balance.Equal(d(0.00009)) || bal.IsShort {
		t.Errorf("bob balance %s short=%v, want 0.00009 long", bal.Balance, bal.IsShort)
	}
}

// --- Admin ---

func TestPauseFlow(t *testing.T) {
	e := newTestEnv(t)

	if w := e.do("POST", "/api/v1/admin/pause", map[string]string{"caller": "mallory"}); w.Code != http.StatusForbidden {
		t.Fatalf("stranger pause: expected 403, got %d", w.Code)
	}
	if w := e.do("POST", "/api/v1/admin/pause", map[string]string{"caller": "owner"}); w.Code != http.StatusOK {
		t.Fatalf("owner pause: %d", w.Code)
	}

	w := e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(1)})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("trade while paused: expected 503, got %d", w.Code)
	}

	if w := e.do("POST", "/api/v1/admin/unpause", map[string]string{"caller": "owner"}); w.Code != http.StatusOK {
		t.Fatalf("unpause: %d", w.Code)
	}
	if w := e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(1)}); w.Code != http.StatusOK {
		t.Errorf("trade after unpause: %d %s", w.Code, w.Body.String())
	}
}

func TestOperatorsRoute(t *testing.T) {
	e := newTestEnv(t)

	w := e.do("POST", "/api/v1/admin/operators", map[string]string{"caller": "owner", "addr": "op1"})
	if w.Code != http.StatusOK {
		t.Fatalf("add operator: %d", w.Code)
	}
	w = e.do("POST", "/api/v1/admin/operators", map[string]string{"caller": "op1", "addr": "op2"})
	if w.Code != http.StatusForbidden {
		t.Errorf("operator adding operator: expected 403, got %d", w.Code)
	}
}

func TestWithdrawalsFlow(t *testing.T) {
	e := newTestEnv(t)
	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(10)}) // taxes 0.5

	w := e.do("POST", "/api/v1/admin/withdrawals", map[string]string{"caller": "owner"})
	if w.Code != http.StatusCreated {
		t.Fatalf("initiate: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Index int `json:"index"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	w = e.do("POST", "/api/v1/admin/withdrawals/0/complete", map[string]string{"caller": "owner"})
	if w.Code != http.StatusConflict {
		t.Errorf("early complete: expected 409, got %d", w.Code)
	}

	e.clock.AdvanceTime(48 * time.Hour)
	w = e.do("POST", "/api/v1/admin/withdrawals/0/complete", map[string]string{"caller": "owner"})
	if w.Code != http.StatusOK {
		t.Fatalf("complete after delay: %d %s", w.Code, w.Body.String())
	}
	var completed struct {
		Amount decimal.Decimal `json:"amount"`
	}
	json.Unmarshal(w.Body.Bytes(), &completed)
	if !completed.Amount.Equal(d(0.5)) {
		t.Errorf("paid %s, want 0.5", completed.Amount)
	}

	w = e.do("GET", "/api/v1/taxes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("taxes view: %d", w.Code)
	}
}

// --- Rebase & positions ---

func TestRebaseRoute(t *testing.T) {
	e := newTestEnv(t)
	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(10)})

	e.btc.SetPrice(p(60000))
	e.clock.AdvanceTime(time.Minute)

	w := e.do("POST", "/api/v1/rebase", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rebase: %d %s", w.Code, w.Body.String())
	}
	var events []ledger.RebaseEvent
	json.Unmarshal(w.Body.Bytes(), &events)
	if len(events) != 1 || !events[0].Factor.Equal(d(1.2)) {
		t.Errorf("expected one rebase at factor 1.2, got %v", events)
	}

	// Nothing due: empty list, still 200.
	w = e.do("POST", "/api/v1/rebase", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("idle rebase: %d", w.Code)
	}
}

func TestPositionsFlow(t *testing.T) {
	e := newTestEnv(t)
	e.trade(api.TradeRequest{Account: "alice", SymbolID: 1, Side: "buy", Value: d(10)})

	w := e.do("POST", "/api/v1/positions/open", map[string]interface{}{
		"account": "bob", "symbol_id": 1, "value": "1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("open: %d %s", w.Code, w.Body.String())
	}

	w = e.do("GET", "/api/v1/positions/bob", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get position: %d", w.Code)
	}
	var info model.PositionInfo
	json.Unmarshal(w.Body.Bytes(), &info)
	if info.Symbol != "BTC" || !info.EthAmount.Equal(d(1)) {
		t.Errorf("position wrong: %+v", info)
	}

	w = e.do("POST", "/api/v1/positions/close", map[string]interface{}{"account": "bob"})
	if w.Code != http.StatusOK {
		t.Fatalf("close: %d %s", w.Code, w.Body.String())
	}

	if w := e.do("GET", "/api/v1/positions/bob", nil); w.Code != http.StatusNotFound {
		t.Errorf("closed position: expected 404, got %d", w.Code)
	}
}

// --- History ---

func TestHistoryRoutes(t *testing.T) {
	e := newTestEnv(t)

	// Journal is empty but the routes answer with empty lists.
	w := e.do("GET", "/api/v1/symbols/1/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("symbol history: %d", w.Code)
	}
	var trades []model.TradeRecord
	json.Unmarshal(w.Body.Bytes(), &trades)
	if trades == nil {
		t.Error("history should decode as an empty list, not null")
	}

	w = e.do("GET", "/api/v1/accounts/alice/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("account history: %d", w.Code)
	}

	if w := e.do("GET", "/api/v1/symbols/1/trades-per-hour", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing hour: expected 400, got %d", w.Code)
	}
	if w := e.do("GET", "/api/v1/symbols/1/trades-per-hour?hour=1", nil); w.Code != http.StatusOK {
		t.Errorf("trades-per-hour: %d", w.Code)
	}
}
