package config

import "testing"

func TestLoad_TierPercentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ASAAS_USE_MOCK", "true")
	t.Setenv("BILLING_TIER_JUNIOR_PERCENT", "50")
	t.Setenv("BILLING_TIER_ESPECIALISTA_PERCENT", "80")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Billing.TierJuniorPercent != 50 {
		t.Errorf("TierJuniorPercent = %d, want 50", cfg.Billing.TierJuniorPercent)
	}
	if cfg.Billing.TierEspecialistaPercent != 80 {
		t.Errorf("TierEspecialistaPercent = %d, want 80", cfg.Billing.TierEspecialistaPercent)
	}

	// Незаданные уровни остаются на значениях по умолчанию
	if cfg.Billing.TierPlenoPercent != 65 {
		t.Errorf("TierPlenoPercent = %d, want 65", cfg.Billing.TierPlenoPercent)
	}
	if cfg.Billing.TierSeniorPercent != 70 {
		t.Errorf("TierSeniorPercent = %d, want 70", cfg.Billing.TierSeniorPercent)
	}
}
