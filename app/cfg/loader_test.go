package cfg

import (
	"testing"
	"time"
)

var requiredArgs = []string{
	"--ning-subdomain", "apiexample",
	"--ning-consumer-key", "consumer-key",
	"--ning-consumer-secret", "consumer-secret",
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(requiredArgs)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.DBDriver != "sqlite" {
		t.Errorf("Expected driver 'sqlite', got '%s'", cfg.DBDriver)
	}
	if cfg.QueueBackend != "memory" {
		t.Errorf("Expected queue backend 'memory', got '%s'", cfg.QueueBackend)
	}
	if cfg.RefreshInterval != time.Hour {
		t.Errorf("Expected refresh interval 1h, got %v", cfg.RefreshInterval)
	}
	if cfg.FeedSweepInterval != time.Hour {
		t.Errorf("Expected feed sweep interval 1h, got %v", cfg.FeedSweepInterval)
	}
	if cfg.PublishSweepInterval != time.Minute {
		t.Errorf("Expected publish sweep interval 1m, got %v", cfg.PublishSweepInterval)
	}
	if cfg.MaxRetries != 100 {
		t.Errorf("Expected max retries 100, got %d", cfg.MaxRetries)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("Expected fetch timeout 30s, got %v", cfg.FetchTimeout)
	}
	if cfg.NingAPIURL != "https://external.ningapis.com" {
		t.Errorf("Expected default Ning API URL, got '%s'", cfg.NingAPIURL)
	}
	if cfg.NingSubdomain != "apiexample" {
		t.Errorf("Expected subdomain 'apiexample', got '%s'", cfg.NingSubdomain)
	}
	if cfg.Version == "" {
		t.Error("Expected version to be set")
	}
}

func TestLoadArgsOverrides(t *testing.T) {
	args := append([]string{
		"--queue-backend", "redis",
		"--max-retries", "7",
		"--publish-sweep-interval", "30s",
		"--worker-count", "2",
		"--debug",
	}, requiredArgs...)

	cfg, err := LoadArgs(args)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.QueueBackend != "redis" {
		t.Errorf("Expected queue backend 'redis', got '%s'", cfg.QueueBackend)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("Expected max retries 7, got %d", cfg.MaxRetries)
	}
	if cfg.PublishSweepInterval != 30*time.Second {
		t.Errorf("Expected publish sweep interval 30s, got %v", cfg.PublishSweepInterval)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestLoadArgsMissingRequired(t *testing.T) {
	_, err := LoadArgs([]string{"--ning-subdomain", "apiexample"})
	if err == nil {
		t.Error("Expected error when consumer credentials are missing")
	}
}

func TestLoadArgsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"sqs without queue URL", []string{"--queue-backend", "sqs"}},
		{"zero workers", []string{"--worker-count", "0"}},
		{"negative retries", []string{"--max-retries=-1"}},
		{"zero fetch timeout", []string{"--fetch-timeout", "0s"}},
		{"unknown backend", []string{"--queue-backend", "kafka"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadArgs(append(tt.args, requiredArgs...))
			if err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}
