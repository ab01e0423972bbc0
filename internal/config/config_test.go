package config

import (
	"strings"
	"testing"
	"time"
)

func clearLeadEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "LEAD_STORE", "DATABASE_URL", "SUPABASE_URL",
		"SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY", "EMAIL_PROVIDER", "RESEND_API_KEY",
		"SENDGRID_API_KEY", "OWNER_EMAILS", "MIN_FILL_DURATION", "RATE_LIMIT_PER_MINUTE",
		"ADMIN_JWT_SECRET", "FALLBACK_PHONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearLeadEnv(t)
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LeadStore != StoreMemory {
		t.Fatalf("expected memory store by default, got %s", cfg.LeadStore)
	}
	if cfg.EmailProvider != EmailStub {
		t.Fatalf("expected stub email by default, got %s", cfg.EmailProvider)
	}
	if cfg.FallbackPhone != "0435 900 709" {
		t.Fatalf("expected default fallback phone, got %s", cfg.FallbackPhone)
	}
	if cfg.MinFillDuration != 3*time.Second {
		t.Fatalf("expected 3s min fill duration, got %s", cfg.MinFillDuration)
	}
	if cfg.RateLimitPerMinute != 5 {
		t.Fatalf("expected 5 req/min, got %d", cfg.RateLimitPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearLeadEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("OWNER_EMAILS", "kaid@example.com, , office@example.com")
	t.Setenv("MIN_FILL_DURATION", "5s")
	t.Setenv("ADMIN_JWT_SECRET", "secret")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.LeadStore != StorePostgres {
		t.Fatalf("expected postgres inferred from DATABASE_URL, got %s", cfg.LeadStore)
	}
	if cfg.EmailProvider != EmailResend {
		t.Fatalf("expected resend inferred from key, got %s", cfg.EmailProvider)
	}
	if len(cfg.OwnerEmails) != 2 || cfg.OwnerEmails[1] != "office@example.com" {
		t.Fatalf("expected two owner emails, got %v", cfg.OwnerEmails)
	}
	if cfg.MinFillDuration != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.MinFillDuration)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadSupabaseInferred(t *testing.T) {
	clearLeadEnv(t)
	t.Setenv("SUPABASE_URL", "https://xyz.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	cfg := Load()
	if cfg.LeadStore != StoreSupabase {
		t.Fatalf("expected supabase store, got %s", cfg.LeadStore)
	}
	if cfg.SupabaseKey != "anon" {
		t.Fatalf("expected anon key fallback, got %s", cfg.SupabaseKey)
	}
}

func TestValidateRejectsBrokenCombos(t *testing.T) {
	clearLeadEnv(t)
	t.Setenv("LEAD_STORE", "postgres")
	t.Setenv("EMAIL_PROVIDER", "sendgrid")
	t.Setenv("ENV", "production")
	cfg := Load()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "SENDGRID_API_KEY", "ADMIN_JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %q", want, err.Error())
		}
	}

	cfg.LeadStore = "dynamo"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "unknown LEAD_STORE") {
		t.Errorf("expected unknown store error, got %v", err)
	}
}
