package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func testEnv(overrides map[string]string) func(string) string {
	base := map[string]string{
		"SOLANA_RPC_ENDPOINTS": "https://rpc-a.example.com,https://rpc-b.example.com",
		"STABLE_MINT":          "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"DEPOSIT_OWNER":        "ownerAddr",
		"DEPOSIT_ATA":          "vaultAddr",
		"PRESALE_PRICE_USDC":   "0.0005",
	}
	for k, v := range overrides {
		base[k] = v
	}
	return func(key string) string { return base[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(testEnv(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Phase != PhaseOpen {
		t.Errorf("expected default phase %q, got %q", PhaseOpen, cfg.Phase)
	}
	if cfg.ScanWindow != DefaultScanWindow {
		t.Errorf("expected scan window %d, got %d", DefaultScanWindow, cfg.ScanWindow)
	}
	if !cfg.EarlyClaimFeeUSDC.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected default early-claim fee 1, got %s", cfg.EarlyClaimFeeUSDC)
	}
	if cfg.PendingIntentTTL != DefaultPendingIntentTTL {
		t.Errorf("unexpected pending TTL %v", cfg.PendingIntentTTL)
	}
	if len(cfg.RPCEndpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(cfg.RPCEndpoints))
	}
}

func TestFromEnv_DeduplicatesEndpoints(t *testing.T) {
	cfg, err := FromEnv(testEnv(map[string]string{
		"SOLANA_RPC_ENDPOINTS": "https://a, https://b,https://a,  ,https://b",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.RPCEndpoints) != 2 {
		t.Fatalf("expected deduplicated list of 2, got %v", cfg.RPCEndpoints)
	}
	if cfg.RPCEndpoints[0] != "https://a" || cfg.RPCEndpoints[1] != "https://b" {
		t.Errorf("order not preserved: %v", cfg.RPCEndpoints)
	}
}

func TestValidate_RejectsBadPhase(t *testing.T) {
	cfg, err := FromEnv(testEnv(map[string]string{"PRESALE_PHASE": "paused"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "phase") {
		t.Errorf("expected phase validation error, got %v", err)
	}
}

func TestValidate_RejectsInvertedCaps(t *testing.T) {
	cfg, err := FromEnv(testEnv(map[string]string{
		"PRESALE_MIN_USDC": "1000",
		"PRESALE_MAX_USDC": "10",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for min > max")
	}
}

func TestValidate_DistributionBudget(t *testing.T) {
	cfg, err := FromEnv(testEnv(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if total := cfg.Distribution.TotalBps(); total > 10000 {
		t.Fatalf("default distribution exceeds 10000 bps: %d", total)
	}
	cfg.Distribution[0].ShareBps += 10000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for oversubscribed distribution")
	}
}

func TestFromEnv_RejectsMalformedPrice(t *testing.T) {
	_, err := FromEnv(testEnv(map[string]string{"PRESALE_PRICE_USDC": "abc"}))
	if err == nil {
		t.Error("expected error for malformed price")
	}
}
