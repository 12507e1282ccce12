package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/synthx/elastic-engine/internal/api"
	"github.com/synthx/elastic-engine/internal/guard"
	"github.com/synthx/elastic-engine/internal/ledger"
	"github.com/synthx/elastic-engine/internal/metrics"
	"github.com/synthx/elastic-engine/internal/oracle"
	"github.com/synthx/elastic-engine/internal/store"
)

// feedDirectory maps symbol names to their configured price feeds.
type feedDirectory map[string]oracle.PriceFeed

func (d feedDirectory) Lookup(name string) (oracle.PriceFeed, bool) {
	f, ok := d[name]
	return f, ok
}

// parseSymbolSpec parses the SYMBOLS env var, e.g. "BTC:50000,ETH:2000".
func parseSymbolSpec(spec string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, priceStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed symbol entry %q", part)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("bad price for %s: %w", name, err)
		}
		out[strings.ToUpper(strings.TrimSpace(name))] = price
	}
	return out, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	owner := os.Getenv("OWNER")
	if owner == "" {
		owner = "0xowner"
		slog.Warn("OWNER not set, using default owner account", "owner", owner)
	}

	// --- Initialize trade journal ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory journal (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Engine ---
	cfg := ledger.DefaultConfig(owner)
	cfg.MaxImpactBps = 500

	engine, err := ledger.New(cfg, guard.WallClock{}, st)
	if err != nil {
		slog.Error("engine init failed", "err", err)
		os.Exit(1)
	}

	// --- Price feeds ---
	symbolSpec := os.Getenv("SYMBOLS")
	if symbolSpec == "" {
		symbolSpec = "BTC:50000,ETH:2000"
	}
	prices, err := parseSymbolSpec(symbolSpec)
	if err != nil {
		slog.Error("invalid SYMBOLS", "err", err)
		os.Exit(1)
	}

	feeds := make(feedDirectory, len(prices))
	seed := time.Now().UnixNano()
	for name, price := range prices {
		feed := oracle.NewSimulatedFeed(name, price.Mul(decimal.New(1, 8)), 0, 0.01, seed)
		seed++
		feeds[name] = feed
		if _, err := engine.AddSymbol(context.Background(), owner, feed); err != nil {
			slog.Error("symbol registration failed", "symbol", name, "err", err)
			os.Exit(1)
		}
		slog.Info("symbol registered", "symbol", name, "price", price)
	}
	metrics.ActiveSymbols.Set(float64(len(prices)))

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run()

	// --- API service ---
	svc := api.NewService(engine, st, feeds, wsHub)

	// --- Feed tick + rebase loop ---
	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				for _, feed := range feeds {
					if sim, ok := feed.(*oracle.SimulatedFeed); ok {
						sim.Tick()
					}
				}
				if _, err := svc.RunRebase(loopCtx); err != nil {
					slog.Warn("scheduled rebase skipped", "err", err)
				}
			}
		}
	}()

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"elastic-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", svc.Routes)

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("elastic-engine listening", "port", port, "owner", owner)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	loopCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down elastic-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("elastic-engine stopped")
}
