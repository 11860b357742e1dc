package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/refunds?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "refunds-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "BKASH_BASE_URL", "https://bkash.example.test")
	setEnv(t, "BKASH_HTTP_TIMEOUT_SECONDS", "15")
	setEnv(t, "REFUNDS_GATEWAY_TIMEOUT_SECONDS", "45")
	setEnv(t, "REFUNDS_PROCESSING_STUCK_AFTER_MINUTES", "20")
	setEnv(t, "REFUNDS_JOB_BATCH_SIZE", "99")
	setEnv(t, "REFUNDS_SWEEP_PROCESSING_INTERVAL_MINUTES", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "refunds-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.Bkash.BaseURL != "https://bkash.example.test" {
		t.Fatalf("unexpected bkash base url: %s", cfg.Bkash.BaseURL)
	}
	if cfg.Bkash.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected bkash http timeout: %v", cfg.Bkash.HTTPTimeout)
	}
	if cfg.Nagad.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected nagad http timeout default: %v", cfg.Nagad.HTTPTimeout)
	}
	if cfg.Refunds.GatewayTimeout != 45*time.Second {
		t.Fatalf("unexpected gateway timeout: %v", cfg.Refunds.GatewayTimeout)
	}
	if cfg.Refunds.ProcessingStuckAfter != 20*time.Minute {
		t.Fatalf("unexpected processing stuck after: %v", cfg.Refunds.ProcessingStuckAfter)
	}
	if cfg.Refunds.JobBatchSize != 99 {
		t.Fatalf("unexpected job batch size: %d", cfg.Refunds.JobBatchSize)
	}
	if cfg.Jobs.SweepProcessingInterval != 3*time.Minute {
		t.Fatalf("unexpected sweep interval: %v", cfg.Jobs.SweepProcessingInterval)
	}
}
