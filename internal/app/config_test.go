package app

import (
	"reflect"
	"testing"
	"time"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverMemory, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if cfg.JWTSecret == "" {
		t.Error("expected non-empty JWTSecret")
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("expected JWTTTL 24h, got %s", cfg.JWTTTL)
	}
	if cfg.LoginMaxAttempts != 5 {
		t.Errorf("expected LoginMaxAttempts 5, got %d", cfg.LoginMaxAttempts)
	}
	if cfg.LoginBlockWindow != 10*time.Second {
		t.Errorf("expected LoginBlockWindow 10s, got %s", cfg.LoginBlockWindow)
	}
	if cfg.KafkaTopic != "appliances.order.events" {
		t.Errorf("unexpected KafkaTopic: %s", cfg.KafkaTopic)
	}
	if cfg.OutboxPollInterval <= 0 {
		t.Error("expected OutboxPollInterval to be > 0")
	}
	if cfg.OutboxBatchSize <= 0 {
		t.Error("expected OutboxBatchSize to be > 0")
	}
	if cfg.OutboxMaxAttempts <= 0 {
		t.Error("expected OutboxMaxAttempts to be > 0")
	}
	if cfg.OutboxRetryDelay < 0 {
		t.Error("expected OutboxRetryDelay to be >= 0")
	}
	if cfg.RedisAddr != "" || cfg.KafkaBrokers != "" {
		t.Error("expected optional integrations to be disabled by default")
	}
	if cfg.BootstrapEmployeeEmail != "" || cfg.BootstrapEmployeePassword != "" {
		t.Error("expected no bootstrap employee by default")
	}
}

func TestConfig_Comparison(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()

	if cfg1 != cfg2 {
		t.Error("two DefaultConfig instances should be equal")
	}

	cfg2.HTTPAddr = ":8081"
	if cfg1 == cfg2 {
		t.Error("modified config should not be equal to original")
	}
}

func TestConfig_Brokers(t *testing.T) {
	testCases := []struct {
		name    string
		brokers string
		want    []string
	}{
		{name: "empty", brokers: "", want: nil},
		{name: "single", brokers: "localhost:9092", want: []string{"localhost:9092"}},
		{
			name:    "with spaces",
			brokers: "broker1:9092, broker2:9092 ,broker3:9092",
			want:    []string{"broker1:9092", "broker2:9092", "broker3:9092"},
		},
		{name: "empty items", brokers: " , broker1:9092,,", want: []string{"broker1:9092"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{KafkaBrokers: tc.brokers}
			if got := cfg.Brokers(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
