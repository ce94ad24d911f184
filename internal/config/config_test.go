package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "scheduler")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("LOCK_BACKEND", "local")

	cfg := Load()
	if cfg.Port != "8080" || cfg.AccessTTLMin != 15 || cfg.BcryptCost != 10 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.LockTTL != 3*time.Second || cfg.LockBackend != LockBackendLocal {
		t.Fatalf("unexpected lock settings %+v", cfg)
	}
	if !cfg.Migrate {
		t.Fatal("migrate should default to true")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SCHED_TEST_A=from-file\nSCHED_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCHED_TEST_A", "from-env")
	t.Setenv("SCHED_TEST_B", "")
	os.Unsetenv("SCHED_TEST_B")

	loadDotEnv(path)
	t.Cleanup(func() { os.Unsetenv("SCHED_TEST_B") })

	if got := os.Getenv("SCHED_TEST_A"); got != "from-env" {
		t.Fatalf("environment must win, got %q", got)
	}
	if got := os.Getenv("SCHED_TEST_B"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}

	// A missing file is silently ignored.
	loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 5 || cfg.RefillTokens != 1 || cfg.RefillInterval != 2*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl must be raised to 5 refill intervals, got %s", cfg.TTL)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Fatalf("unexpected methods %v", cfg.Methods)
	}
}

func TestLoadBrokerConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	t.Setenv("BROKER_ENABLED", "false")

	cfg := LoadBrokerConfig()
	if cfg.URL != "amqp://u:p@broker:5672/" || cfg.Enabled {
		t.Fatalf("unexpected broker config %+v", cfg)
	}
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_DB", "2")
	opts := RedisOptions()
	if opts.Addr != "cache:6380" || opts.DB != 2 || opts.TLSConfig != nil {
		t.Fatalf("unexpected options %+v", opts)
	}

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	opts = RedisOptions()
	if opts.Addr != "redis:6379" || opts.TLSConfig == nil {
		t.Fatalf("unexpected options %+v", opts)
	}
}
