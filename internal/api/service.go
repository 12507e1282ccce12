// Package api provides the HTTP surface over the ledger engine: trading,
// positions, rebase, admin, and read endpoints, plus WebSocket broadcasts
// of executed trades and applied rebases.
//
// The hosting runtime is responsible for authenticating callers; handlers
// take the acting account from the request body and pass it to the engine,
// which enforces owner/operator roles.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/ledger"
	"github.com/synthx/elastic-engine/internal/metrics"
	"github.com/synthx/elastic-engine/internal/model"
	"github.com/synthx/elastic-engine/internal/oracle"
	"github.com/synthx/elastic-engine/internal/registry"
	"github.com/synthx/elastic-engine/internal/store"
)

// FeedDirectory resolves a symbol name to a configured price feed. The
// server wires this from its feed configuration; the engine itself never
// constructs feeds.
type FeedDirectory interface {
	Lookup(name string) (oracle.PriceFeed, bool)
}

// Service handles ledger operations over HTTP. A mutex serializes
// engine calls (single-instance); the engine's guard additionally
// rejects reentrant entry from payout callbacks.
type Service struct {
	engine  *ledger.Ledger
	journal store.Store
	feeds   FeedDirectory
	wsHub   *WSHub // optional; nil disables broadcasts
	mu      sync.Mutex
}

// NewService creates a new API service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(engine *ledger.Ledger, journal store.Store, feeds FeedDirectory, hub *WSHub) *Service {
	return &Service{
		engine:  engine,
		journal: journal,
		feeds:   feeds,
		wsHub:   hub,
	}
}

// Routes mounts all handlers on a chi router.
func (s *Service) Routes(r chi.Router) {
	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}

	r.Get("/symbols", s.ListSymbols)
	r.Post("/symbols", s.AddSymbol)
	r.Get("/symbols/{symbolID}", s.GetSymbolStats)
	r.Post("/symbols/{symbolID}/deactivate", s.DeactivateSymbol)
	r.Get("/symbols/{symbolID}/history", s.GetSymbolHistory)
	r.Get("/symbols/{symbolID}/trades-per-hour", s.GetTradesPerHour)

	r.Post("/trade", s.ExecuteTrade)
	r.Post("/transfer", s.Transfer)
	r.Post("/approve", s.Approve)
	r.Get("/balances/{symbolID}/{account}", s.GetBalance)
	r.Get("/allowances/{symbolID}/{owner}/{spender}", s.GetAllowance)

	r.Post("/positions/open", s.OpenPosition)
	r.Post("/positions/close", s.ClosePosition)
	r.Get("/positions/{account}", s.GetPosition)

	r.Post("/rebase", s.Rebase)

	r.Get("/accounts/{account}/history", s.GetAccountHistory)
	r.Get("/taxes", s.GetTaxes)

	r.Post("/admin/operators", s.AddOperator)
	r.Post("/admin/pause", s.Pause)
	r.Post("/admin/unpause", s.Unpause)
	r.Post("/admin/taxes/withdraw", s.WithdrawTaxes)
	r.Post("/admin/withdrawals", s.InitiateWithdrawal)
	r.Post("/admin/withdrawals/{index}/complete", s.CompleteWithdrawal)
}

// --- Request/Response types ---

// TradeRequest is the JSON body for POST /trade.
type TradeRequest struct {
	Account    string          `json:"account"`
	SymbolID   uint32          `json:"symbol_id"`
	Side       string          `json:"side"`                 // "buy" or "sell"
	Value      decimal.Decimal `json:"value"`                // ETH attached (buy)
	Amount     decimal.Decimal `json:"amount"`               // tokens (sell)
	MinOut     decimal.Decimal `json:"min_out"`              // slippage floor (buy)
	Collateral decimal.Decimal `json:"collateral,omitempty"` // short collateral (sell)
}

// TradeResponse is the JSON body returned from POST /trade.
type TradeResponse struct {
	Account  string          `json:"account"`
	SymbolID uint32          `json:"symbol_id"`
	Side     string          `json:"side"`
	Tokens   decimal.Decimal `json:"tokens,omitempty"`  // minted on buy
	EthOut   decimal.Decimal `json:"eth_out,omitempty"` // paid on sell
	Balance  decimal.Decimal `json:"balance"`
}

type symbolRequest struct {
	Caller string `json:"caller"`
	Name   string `json:"name"`
}

type callerRequest struct {
	Caller string `json:"caller"`
	Addr   string `json:"addr,omitempty"`
}

type transferRequest struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Spender  string          `json:"spender,omitempty"` // delegated transfer
	SymbolID uint32          `json:"symbol_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type approveRequest struct {
	Owner    string          `json:"owner"`
	Spender  string          `json:"spender"`
	SymbolID uint32          `json:"symbol_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type positionRequest struct {
	Account  string          `json:"account"`
	SymbolID uint32          `json:"symbol_id"`
	Value    decimal.Decimal `json:"value"`
}

// --- Trading ---

// ExecuteTrade handles POST /api/v1/trade.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Account == "" {
		writeError(w, "account is required", http.StatusBadRequest)
		return
	}
	if req.Side != "buy" && req.Side != "sell" {
		writeError(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := TradeResponse{Account: req.Account, SymbolID: req.SymbolID, Side: req.Side}
	kind := model.KindBuy
	var err error

	if req.Side == "buy" {
		resp.Tokens, err = s.engine.Buy(ctx, req.Account, req.SymbolID, req.Value, req.MinOut)
	} else {
		// A sell without enough balance to burn opens a short; label by
		// the operation executed, not the post-trade balance sign.
		kind = model.KindSell
		if bal, balErr := s.engine.BalanceOf(req.SymbolID, req.Account); balErr == nil && bal.LessThan(req.Amount) {
			kind = model.KindShort
		}
		resp.EthOut, err = s.engine.Sell(ctx, req.Account, req.SymbolID, req.Amount, req.Collateral)
	}
	if err != nil {
		metrics.TradeRejections.WithLabelValues(rejectionReason(err)).Inc()
		writeLedgerError(w, err)
		return
	}

	resp.Balance, _ = s.engine.BalanceOf(req.SymbolID, req.Account)
	metrics.TradesTotal.WithLabelValues(kind).Inc()

	if sym, err := s.engine.SymbolByID(req.SymbolID); err == nil {
		metrics.ReserveBalance.WithLabelValues(sym.Name).Set(sym.ReserveBalance.InexactFloat64())
		if s.wsHub != nil {
			s.wsHub.Broadcast(WSMessage{
				Type:     "trade",
				SymbolID: sym.ID,
				Symbol:   sym.Name,
				Kind:     kind,
				Account:  req.Account,
				Amount:   resp.Tokens.Add(req.Amount).String(),
				Price:    sym.LastPrice.String(),
			})
		}
	}
	metrics.CollectedTaxes.Set(s.engine.CollectedTaxes().InexactFloat64())

	writeJSON(w, http.StatusOK, resp)
}

// Transfer handles POST /api/v1/transfer (direct or delegated).
func (s *Service) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if req.Spender != "" {
		err = s.engine.TransferFrom(req.Spender, req.From, req.To, req.SymbolID, req.Amount)
	} else {
		err = s.engine.Transfer(req.From, req.To, req.SymbolID, req.Amount)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Approve handles POST /api/v1/approve.
func (s *Service) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Approve(req.Owner, req.Spender, req.SymbolID, req.Amount); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetBalance handles GET /api/v1/balances/{symbolID}/{account}.
func (s *Service) GetBalance(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := parseSymbolID(w, r)
	if !ok {
		return
	}
	account := chi.URLParam(r, "account")

	s.mu.Lock()
	defer s.mu.Unlock()

	isShort, balance, err := s.engine.PositionType(symbolID, account)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	collateral, _ := s.engine.ShortCollateral(symbolID, account)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol_id":        symbolID,
		"account":          account,
		"balance":          balance,
		"is_short":         isShort,
		"short_collateral": collateral,
	})
}

// GetAllowance handles GET /api/v1/allowances/{symbolID}/{owner}/{spender}.
func (s *Service) GetAllowance(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := parseSymbolID(w, r)
	if !ok {
		return
	}
	owner := chi.URLParam(r, "owner")
	spender := chi.URLParam(r, "spender")

	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol_id": symbolID,
		"owner":     owner,
		"spender":   spender,
		"allowance": s.engine.Allowance(owner, spender, symbolID),
	})
}

// --- Symbols ---

// AddSymbol handles POST /api/v1/symbols. The symbol's feed must exist
// in the server's feed directory.
func (s *Service) AddSymbol(w http.ResponseWriter, r *http.Request) {
	var req symbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	feed, ok := s.feeds.Lookup(req.Name)
	if !ok {
		writeError(w, "no feed configured for "+req.Name, http.StatusNotFound)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sym, err := s.engine.AddSymbol(r.Context(), req.Caller, feed)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.refreshActiveSymbols()
	writeJSON(w, http.StatusCreated, sym)
}

// DeactivateSymbol handles POST /api/v1/symbols/{symbolID}/deactivate.
func (s *Service) DeactivateSymbol(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := parseSymbolID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.DeactivateSymbol(req.Caller, symbolID); err != nil {
		writeLedgerError(w, err)
		return
	}
	s.refreshActiveSymbols()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSymbols handles GET /api/v1/symbols.
func (s *Service) ListSymbols(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, err := s.engine.Symbols()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if symbols == nil {
		symbols = []model.Symbol{}
	}
	writeJSON(w, http.StatusOK, symbols)
}

// GetSymbolStats handles GET /api/v1/symbols/{symbolID}.
func (s *Service) GetSymbolStats(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := parseSymbolID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.engine.SymbolStats(symbolID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetSymbolHistory handles GET /api/v1/symbols/{symbolID}/history.
func (s *Service) GetSymbolHistory(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := parseSymbolID(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	trades, err := s.journal.TradesBySymbol(r.Context(), symbolID, limit)
	if err != nil {
		writeError(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []model.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// GetTradesPerHour handles GET /api/v1/symbols/{symbolID}/trades-per-hour?hour=N.
func (s *Service) GetTradesPerHour(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := parseSymbolID(w, r)
	if !ok {
		return
	}
	hour, err := strconv.ParseInt(r.URL.Query().Get("hour"), 10, 64)
	if err != nil {
		writeError(w, "hour query parameter required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol_id": symbolID,
		"hour":      hour,
		"trades":    s.engine.TradesPerHour(symbolID, hour),
	})
}

// --- Positions ---

// OpenPosition handles POST /api/v1/positions/open.
func (s *Service) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.OpenLong(r.Context(), req.Account, req.SymbolID, req.Value); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "open"})
}

// ClosePosition handles POST /api/v1/positions/close.
func (s *Service) ClosePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payout, err := s.engine.CloseLong(r.Context(), req.Account)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payout": payout})
}

// GetPosition handles GET /api/v1/positions/{account}.
func (s *Service) GetPosition(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.engine.PositionInfo(r.Context(), account)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// --- Maintenance ---

// Rebase handles POST /api/v1/rebase. Permissionless; a call with no
// eligible symbol returns an empty list.
func (s *Service) Rebase(w http.ResponseWriter, r *http.Request) {
	events, err := s.RunRebase(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if events == nil {
		events = []ledger.RebaseEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// RunRebase applies any due rebases and broadcasts the results. The
// server's background loop calls this on a ticker; the POST /rebase
// handler calls it on demand.
func (s *Service) RunRebase(ctx context.Context) ([]ledger.RebaseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.engine.Rebase(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		metrics.RebasesTotal.WithLabelValues(ev.Symbol).Inc()
		if s.wsHub != nil {
			s.wsHub.Broadcast(WSMessage{
				Type:     "rebase",
				SymbolID: ev.SymbolID,
				Symbol:   ev.Symbol,
				Factor:   ev.Factor.String(),
				Price:    ev.Price.String(),
			})
		}
	}
	return events, nil
}

// --- Accounts / taxes ---

// GetAccountHistory handles GET /api/v1/accounts/{account}/history.
func (s *Service) GetAccountHistory(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	trades, err := s.journal.TradesByAccount(r.Context(), account)
	if err != nil {
		writeError(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []model.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// GetTaxes handles GET /api/v1/taxes.
func (s *Service) GetTaxes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collected": s.engine.CollectedTaxes(),
		"pending":   s.engine.PendingWithdrawals(),
	})
}

// --- Admin ---

// AddOperator handles POST /api/v1/admin/operators.
func (s *Service) AddOperator(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.AddOperator(req.Caller, req.Addr); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Pause handles POST /api/v1/admin/pause.
func (s *Service) Pause(w http.ResponseWriter, r *http.Request) {
	s.pauseSwitch(w, r, true)
}

// Unpause handles POST /api/v1/admin/unpause.
func (s *Service) Unpause(w http.ResponseWriter, r *http.Request) {
	s.pauseSwitch(w, r, false)
}

func (s *Service) pauseSwitch(w http.ResponseWriter, r *http.Request, pause bool) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if pause {
		err = s.engine.Pause(req.Caller)
	} else {
		err = s.engine.Unpause(req.Caller)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": pause})
}

// WithdrawTaxes handles POST /api/v1/admin/taxes/withdraw.
func (s *Service) WithdrawTaxes(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	amount, err := s.engine.WithdrawTaxes(req.Caller)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	metrics.CollectedTaxes.Set(0)
	writeJSON(w, http.StatusOK, map[string]interface{}{"amount": amount})
}

// InitiateWithdrawal handles POST /api/v1/admin/withdrawals.
func (s *Service) InitiateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.engine.InitiateWithdrawal(req.Caller)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

// CompleteWithdrawal handles POST /api/v1/admin/withdrawals/{index}/complete.
func (s *Service) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "invalid withdrawal index", http.StatusBadRequest)
		return
	}
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	amount, err := s.engine.CompleteWithdrawal(req.Caller, index)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"amount": amount})
}

// --- Helpers ---

func (s *Service) refreshActiveSymbols() {
	symbols, err := s.engine.Symbols()
	if err != nil {
		return
	}
	active := 0
	for _, sym := range symbols {
		if sym.Active {
			active++
		}
	}
	metrics.ActiveSymbols.Set(float64(active))
}

func parseSymbolID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "symbolID"), 10, 32)
	if err != nil {
		writeError(w, "invalid symbol id", http.StatusBadRequest)
		return 0, false
	}
	return uint32(id), true
}

// writeLedgerError maps engine failures to HTTP status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	writeError(w, err.Error(), statusFromErr(err))
}

func statusFromErr(err error) int {
	switch {
	case errors.Is(err, guard.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, ledger.ErrNoPosition):
		return http.StatusNotFound
	case errors.Is(err, guard.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, guard.ErrPaused), errors.Is(err, ledger.ErrStalePrice):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, registry.ErrInvalidName):
		return http.StatusBadRequest
	default:
		// Conflicts: duplicates, slippage, collateral, reserve, timelock,
		// reentrancy, operator bound, open position.
		return http.StatusConflict
	}
}

// rejectionReason labels a trade failure for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, guard.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, guard.ErrPaused):
		return "paused"
	case errors.Is(err, ledger.ErrStalePrice):
		return "stale_price"
	case errors.Is(err, ledger.ErrSlippage):
		return "slippage"
	case errors.Is(err, ledger.ErrInsufficientCollateral):
		return "collateral"
	case errors.Is(err, ledger.ErrReserveExhausted):
		return "reserve"
	case errors.Is(err, ledger.ErrPriceImpact):
		return "impact"
	default:
		return "other"
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
