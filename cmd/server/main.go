// Package main runs the presale gateway: intent issuance, settlement
// checking and the optional deposit-account log watcher behind one HTTP
// server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"presale-gateway/internal/claim"
	"presale-gateway/internal/config"
	"presale-gateway/internal/intent"
	"presale-gateway/internal/ledger"
	"presale-gateway/internal/pricing"
	"presale-gateway/internal/server"
	"presale-gateway/internal/settlement"
	"presale-gateway/internal/solana"
	"presale-gateway/internal/status"
	"presale-gateway/internal/storage"
	"presale-gateway/internal/storage/memory"
	"presale-gateway/internal/storage/migrations"
	pgstore "presale-gateway/internal/storage/postgres"
	"presale-gateway/internal/watch"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", defaultEnv("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	enableWatcher := flag.Bool("watch", true, "Enable the deposit log watcher when a WS endpoint is configured")

	flag.Parse()

	logger := log.New(os.Stdout, "[main] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	var (
		intentStore storage.IntentStore
		claimStore  storage.ClaimStore
	)
	if *useMemory {
		logger.Println("using in-memory storage")
		intentStore = memory.NewIntentStore()
		claimStore = memory.NewClaimStore()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}

		intentStore = pgstore.NewIntentStore(pool)
		claimStore = pgstore.NewClaimStore(pool)
	}
	defer intentStore.Close()
	defer claimStore.Close()

	// Chain access
	facade, err := ledger.FromEndpoints(cfg.RPCEndpoints)
	if err != nil {
		logger.Fatalf("build ledger facade: %v", err)
	}

	// Services
	engine := pricing.NewEngine(cfg.BasePriceUSDC, cfg.DiscountBps, cfg.MinContributionUSDC, cfg.MaxContributionUSDC)
	intents := intent.NewService(cfg, engine, facade, intentStore)
	matcher := settlement.NewMatcher(facade, intentStore, cfg.DepositATA, cfg.StableMint, cfg.ScanWindow, cfg.ScanBatch, cfg.SettledIntentTTL)
	claims := claim.NewService(cfg, claimStore)
	statuses := status.NewAssembler(cfg, facade)

	srv := server.New(*listenAddr, cfg, intents, matcher, claims, statuses)

	// Optional push-assisted settlement
	if *enableWatcher && cfg.WSEndpoint != "" {
		go runWatcher(ctx, logger, cfg, matcher)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("received signal %v, shutting down", sig)
	case err := <-errCh:
		logger.Printf("server stopped: %v", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

// runWatcher keeps a log subscription alive for the process lifetime,
// re-dialing when the stream dies.
func runWatcher(ctx context.Context, logger *log.Logger, cfg *config.Config, matcher *settlement.Matcher) {
	for ctx.Err() == nil {
		stream, err := solana.NewLogClient(ctx, cfg.WSEndpoint, nil)
		if err != nil {
			logger.Printf("watcher dial failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		w := watch.NewWatcher(stream, matcher, cfg.DepositATA)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("watcher stopped: %v", err)
		}
		w.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func defaultEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
